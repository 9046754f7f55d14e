package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
)

// handleListCities は州に属する都市の一覧を返すハンドラーです。
func (s *Server) handleListCities(w http.ResponseWriter, r *http.Request) {
	state, err := fetchPath[*model.State](r, "state_id")
	if err != nil {
		s.writeError(w, err, "list cities")
		return
	}

	cities, err := sessionFrom(r.Context()).CitiesOf(r.Context(), state.ID)
	if err != nil {
		s.writeError(w, err, "list cities")
		return
	}
	s.writeJSON(w, renderAll(cities), http.StatusOK)
}

// handleGetCity は特定のIDの都市を返すハンドラーです。
func (s *Server) handleGetCity(w http.ResponseWriter, r *http.Request) {
	getOne[*model.City](s, w, r, "city_id")
}

// handleDeleteCity は都市と、その都市の宿泊施設を削除するハンドラーです。
func (s *Server) handleDeleteCity(w http.ResponseWriter, r *http.Request) {
	deleteOne[*model.City](s, w, r, "city_id")
}

// CreateCityParams represents parameters for creating a city.
type CreateCityParams struct {
	StateID string `json:"-"`
	Name    string `json:"name"`
}

// NewCreateCityParams creates parameters for city creation from HTTP request.
// The parent state is resolved by the caller before the body is read.
func NewCreateCityParams(r *http.Request, state *model.State) (*CreateCityParams, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if err := body.require("name"); err != nil {
		return nil, err
	}
	var params CreateCityParams
	if err := body.decode(&params); err != nil {
		return nil, err
	}
	params.StateID = state.ID
	return &params, nil
}

// handleCreateCity は州に都市を作成するハンドラーです。
func (s *Server) handleCreateCity(w http.ResponseWriter, r *http.Request) {
	// 親の州の存在確認
	state, err := fetchPath[*model.State](r, "state_id")
	if err != nil {
		s.writeError(w, err, "create city")
		return
	}

	params, err := NewCreateCityParams(r, state)
	if err != nil {
		s.writeError(w, err, "create city")
		return
	}

	city, err := model.NewCity(params.StateID, params.Name)
	if err != nil {
		s.writeError(w, invalid(err), "create city")
		return
	}
	s.save(w, r, city, http.StatusCreated)
}

// handleUpdateCity は都市の名前を更新するハンドラーです。state_idは変更できません。
func (s *Server) handleUpdateCity(w http.ResponseWriter, r *http.Request) {
	city, err := fetchPath[*model.City](r, "city_id")
	if err != nil {
		s.writeError(w, err, "update city")
		return
	}

	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, "update city")
		return
	}
	var upd model.CityUpdate
	if err := body.decode(&upd); err != nil {
		s.writeError(w, err, "update city")
		return
	}

	city.Apply(upd)
	s.save(w, r, city, http.StatusOK)
}
