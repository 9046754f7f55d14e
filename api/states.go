package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
)

// handleListStates はすべての州を返すハンドラーです。
func (s *Server) handleListStates(w http.ResponseWriter, r *http.Request) {
	listAll[*model.State](s, w, r)
}

// handleGetState は特定のIDの州を返すハンドラーです。
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	getOne[*model.State](s, w, r, "state_id")
}

// handleDeleteState は州と、その州に属する都市を削除するハンドラーです。
func (s *Server) handleDeleteState(w http.ResponseWriter, r *http.Request) {
	deleteOne[*model.State](s, w, r, "state_id")
}

// CreateStateParams represents parameters for creating a state.
type CreateStateParams struct {
	Name string `json:"name"`
}

// NewCreateStateParams creates parameters for state creation from HTTP request.
func NewCreateStateParams(r *http.Request) (*CreateStateParams, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if err := body.require("name"); err != nil {
		return nil, err
	}
	var params CreateStateParams
	if err := body.decode(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// handleCreateState は州を作成するハンドラーです。
func (s *Server) handleCreateState(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewCreateStateParams(r)
	if err != nil {
		s.writeError(w, err, "create state")
		return
	}

	state, err := model.NewState(params.Name)
	if err != nil {
		s.writeError(w, invalid(err), "create state")
		return
	}
	s.save(w, r, state, http.StatusCreated)
}

// handleUpdateState は州の名前を更新するハンドラーです。
func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	// 更新前に州が存在するか確認
	state, err := fetchPath[*model.State](r, "state_id")
	if err != nil {
		s.writeError(w, err, "update state")
		return
	}

	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, "update state")
		return
	}
	var upd model.StateUpdate
	if err := body.decode(&upd); err != nil {
		s.writeError(w, err, "update state")
		return
	}

	state.Apply(upd)
	s.save(w, r, state, http.StatusOK)
}
