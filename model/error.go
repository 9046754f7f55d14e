package model

import "errors"

// センチネルエラー
var (
	// ErrNotFound は参照されたリソースが存在しない場合のエラーです。
	ErrNotFound = errors.New("not found")
	// ErrNotLinked は Place と Amenity が紐付いていない場合のエラーです。
	ErrNotLinked = errors.New("amenity not linked to place")
)

// ValidationError はバリデーションエラーを表す型
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError はValidationErrorを生成するヘルパー関数
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// MissingField は必須フィールドが欠けている場合のValidationErrorを返します。
func MissingField(field string) error {
	return &ValidationError{Message: "Missing " + field}
}
