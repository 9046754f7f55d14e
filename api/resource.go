package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
	"github.com/stsysd/hbnb/store"
)

// render はレスポンス用の表現を返します。Userはパスワードを取り除きます。
func render(e model.Entity) any {
	if u, ok := e.(*model.User); ok {
		return u.Public()
	}
	return e
}

// renderAll はエンティティの一覧をレスポンス用に変換します。空の場合も空配列を返します。
func renderAll[T model.Entity](items []T) []any {
	out := make([]any, 0, len(items))
	for _, e := range items {
		out = append(out, render(e))
	}
	return out
}

// fetchPath はパスパラメータのIDで指定された種別のエンティティを取得します。
func fetchPath[T model.Entity](r *http.Request, name string) (T, error) {
	var zero T
	id, err := pathID(r, name)
	if err != nil {
		return zero, err
	}
	return store.Fetch[T](r.Context(), sessionFrom(r.Context()), id)
}

// listAll は指定された種別のすべてのエンティティを返すハンドラーの共通処理です。
func listAll[T model.Entity](s *Server, w http.ResponseWriter, r *http.Request) {
	items, err := store.List[T](r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.writeError(w, err, "list resources")
		return
	}
	s.writeJSON(w, renderAll(items), http.StatusOK)
}

// getOne はパスで指定されたエンティティを返すハンドラーの共通処理です。
func getOne[T model.Entity](s *Server, w http.ResponseWriter, r *http.Request, param string) {
	e, err := fetchPath[T](r, param)
	if err != nil {
		s.writeError(w, err, "retrieve resource")
		return
	}
	s.writeJSON(w, render(e), http.StatusOK)
}

// deleteOne はパスで指定されたエンティティを削除するハンドラーの共通処理です。
func deleteOne[T model.Entity](s *Server, w http.ResponseWriter, r *http.Request, param string) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	e, err := fetchPath[T](r, param)
	if err != nil {
		s.writeError(w, err, "delete resource")
		return
	}
	if err := sess.Delete(ctx, e); err != nil {
		s.writeError(w, err, "delete resource")
		return
	}
	if err := sess.Save(ctx); err != nil {
		s.writeError(w, err, "delete resource")
		return
	}
	s.writeJSON(w, emptyObject, http.StatusOK)
}

// save はエンティティを登録して確定し、指定されたステータスで返します。
func (s *Server) save(w http.ResponseWriter, r *http.Request, e model.Entity, statusCode int) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	if err := sess.New(ctx, e); err != nil {
		s.writeError(w, err, "save "+e.Kind().Collection())
		return
	}
	if err := sess.Save(ctx); err != nil {
		s.writeError(w, err, "save "+e.Kind().Collection())
		return
	}
	s.writeJSON(w, render(e), statusCode)
}
