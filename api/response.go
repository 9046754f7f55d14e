package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stsysd/hbnb/model"
)

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON は値をJSONとして書き出します。
func (s *Server) writeJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", "err", err)
	}
}

// writeJSONError はJSON形式でエラーレスポンスを返却します。
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, ErrorResponse{Error: message}, statusCode)
}

// writeError はエラーの種類に応じたステータスコードでレスポンスを返します。
func (s *Server) writeError(w http.ResponseWriter, err error, action string) {
	var validationErr *model.ValidationError
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrNotLinked):
		s.writeJSONError(w, "Not found", http.StatusNotFound)
	case errors.As(err, &validationErr):
		s.writeJSONError(w, validationErr.Message, http.StatusBadRequest)
	default:
		s.logger.Error("Failed to "+action, "err", err)
		s.writeJSONError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

// emptyObject はDELETE成功時のレスポンスです。
var emptyObject = struct{}{}
