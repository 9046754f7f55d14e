package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
)

// handleListUsers はすべてのユーザーを返すハンドラーです。パスワードは含みません。
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	listAll[*model.User](s, w, r)
}

// handleGetUser は特定のIDのユーザーを返すハンドラーです。
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	getOne[*model.User](s, w, r, "user_id")
}

// handleDeleteUser はユーザーと、そのユーザーの宿泊施設・レビューを削除するハンドラーです。
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	deleteOne[*model.User](s, w, r, "user_id")
}

// CreateUserParams represents parameters for creating a user.
type CreateUserParams struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewCreateUserParams creates parameters for user creation from HTTP request.
func NewCreateUserParams(r *http.Request) (*CreateUserParams, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	// email, password の順に確認
	if err := body.require("email", "password"); err != nil {
		return nil, err
	}
	var params CreateUserParams
	if err := body.decode(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// handleCreateUser はユーザーを作成するハンドラーです。
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	params, err := NewCreateUserParams(r)
	if err != nil {
		s.writeError(w, err, "create user")
		return
	}

	user, err := model.NewUser(params.Email, params.Password, params.FirstName, params.LastName)
	if err != nil {
		s.writeError(w, invalid(err), "create user")
		return
	}
	s.save(w, r, user, http.StatusCreated)
}

// handleUpdateUser はユーザーを更新するハンドラーです。emailは変更できません。
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := fetchPath[*model.User](r, "user_id")
	if err != nil {
		s.writeError(w, err, "update user")
		return
	}

	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, "update user")
		return
	}
	var upd model.UserUpdate
	if err := body.decode(&upd); err != nil {
		s.writeError(w, err, "update user")
		return
	}

	if err := user.Apply(upd); err != nil {
		s.writeError(w, invalid(err), "update user")
		return
	}
	s.save(w, r, user, http.StatusOK)
}
