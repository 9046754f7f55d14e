package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ID はリクエストパスから取り出したリソースIDです。
type ID struct {
	value string
}

// ParseID はパスのIDを検証します。UUIDでないIDはErrNotFoundになります。
func ParseID(idStr string) (ID, error) {
	if idStr == "" {
		return ID{}, fmt.Errorf("empty id: %w", ErrNotFound)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return ID{}, fmt.Errorf("malformed id %q: %w", idStr, ErrNotFound)
	}
	return ID{value: id.String()}, nil
}

// String は正規化されたID文字列を返します。
func (i ID) String() string {
	return i.value
}

// SearchFilter は宿泊施設検索のリクエストボディです。
type SearchFilter struct {
	States    []string `json:"states"`
	Cities    []string `json:"cities"`
	Amenities []string `json:"amenities"`
}

// IsEmpty はすべての条件が空かどうかを返します。
func (f *SearchFilter) IsEmpty() bool {
	return len(f.States) == 0 && len(f.Cities) == 0 && len(f.Amenities) == 0
}

// HasLocation は州または都市の条件があるかどうかを返します。
func (f *SearchFilter) HasLocation() bool {
	return len(f.States) > 0 || len(f.Cities) > 0
}
