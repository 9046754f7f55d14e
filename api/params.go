package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stsysd/hbnb/model"
)

// maxBodySize はリクエストボディの上限です。
const maxBodySize = 1 << 20

// requestBody はJSONオブジェクトとして読み込んだリクエストボディです。
type requestBody struct {
	raw    []byte
	fields map[string]json.RawMessage
}

// readBody はリクエストボディを読み込みます。JSONオブジェクトでない場合は "Not a JSON" を返します。
func readBody(r *http.Request) (*requestBody, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, model.NewValidationError("Not a JSON")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, model.NewValidationError("Not a JSON")
	}
	return &requestBody{raw: raw, fields: fields}, nil
}

// require は必須キーの存在を順に確認します。
func (b *requestBody) require(keys ...string) error {
	for _, k := range keys {
		if _, ok := b.fields[k]; !ok {
			return model.MissingField(k)
		}
	}
	return nil
}

// decode はボディを指定された構造体に読み込みます。構造体にないキーは無視されます。
func (b *requestBody) decode(v any) error {
	if err := json.Unmarshal(b.raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return model.NewValidationError("Invalid " + typeErr.Field)
		}
		return model.NewValidationError("Not a JSON")
	}
	return nil
}

// stringField は文字列フィールドを取り出します。文字列でない場合は "Invalid <key>" になります。
func (b *requestBody) stringField(key string) (string, error) {
	var v string
	if msg, ok := b.fields[key]; ok {
		if err := json.Unmarshal(msg, &v); err != nil {
			return "", model.NewValidationError("Invalid " + key)
		}
	}
	return v, nil
}

// pathID はパスパラメータからIDを取得します。UUIDでない場合はErrNotFoundになります。
func pathID(r *http.Request, name string) (string, error) {
	id, err := model.ParseID(r.PathValue(name))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// invalid はモデルのバリデーションエラーをValidationErrorに変換します。
func invalid(err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return err
	}
	return model.NewValidationError(err.Error())
}
