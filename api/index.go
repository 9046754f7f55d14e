package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
)

// handleStatus はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "OK"}, http.StatusOK)
}

// handleStats はリソース種別ごとの件数を返すハンドラーです。
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	stats := make(map[string]int, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		n, err := sess.Count(r.Context(), kind)
		if err != nil {
			s.writeError(w, err, "count "+kind.Collection())
			return
		}
		stats[kind.Collection()] = n
	}
	s.writeJSON(w, stats, http.StatusOK)
}
