package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stsysd/hbnb/store"
)

type sessionKey struct{}

// sessionFrom はリクエストに紐付いたストレージセッションを返します。
func sessionFrom(ctx context.Context) store.Session {
	sess, _ := ctx.Value(sessionKey{}).(store.Session)
	return sess
}

// sessionMiddleware はリクエストごとにストレージセッションを開き、終了時に必ず閉じます。
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Session(r.Context())
		if err != nil {
			s.logger.Error("Failed to open storage session", "err", err)
			s.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := sess.Close(); err != nil {
				s.logger.Error("Failed to close storage session", "err", err)
			}
		}()

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// trimSlashMiddleware はパス末尾のスラッシュを取り除き、/states/ と /states を同じルートに振り分けます。
func trimSlashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = strings.TrimRight(p, "/")
			if r2.URL.Path == "" {
				r2.URL.Path = "/"
			}
			r2.URL.RawPath = ""
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder はレスポンスのステータスコードを記録します。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware はリクエストごとにメソッド、パス、ステータス、処理時間を記録します。
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
