package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
	"github.com/stsysd/hbnb/store"
)

// handleListPlaces は都市にある宿泊施設の一覧を返すハンドラーです。
func (s *Server) handleListPlaces(w http.ResponseWriter, r *http.Request) {
	city, err := fetchPath[*model.City](r, "city_id")
	if err != nil {
		s.writeError(w, err, "list places")
		return
	}

	places, err := sessionFrom(r.Context()).PlacesOf(r.Context(), city.ID)
	if err != nil {
		s.writeError(w, err, "list places")
		return
	}
	s.writeJSON(w, renderAll(places), http.StatusOK)
}

// handleGetPlace は特定のIDの宿泊施設を返すハンドラーです。
func (s *Server) handleGetPlace(w http.ResponseWriter, r *http.Request) {
	getOne[*model.Place](s, w, r, "place_id")
}

// handleDeletePlace は宿泊施設と、そのレビューと設備の紐付けを削除するハンドラーです。
func (s *Server) handleDeletePlace(w http.ResponseWriter, r *http.Request) {
	deleteOne[*model.Place](s, w, r, "place_id")
}

// CreatePlaceParams represents parameters for creating a place.
type CreatePlaceParams struct {
	CityID string
	UserID string
	Name   string
	Detail model.PlaceUpdate
}

// NewCreatePlaceParams creates parameters for place creation from HTTP request.
// user_id is looked up in storage before name is checked.
func NewCreatePlaceParams(r *http.Request, city *model.City) (*CreatePlaceParams, error) {
	ctx := r.Context()

	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if err := body.require("user_id"); err != nil {
		return nil, err
	}
	userID, err := body.stringField("user_id")
	if err != nil {
		return nil, err
	}
	user, err := store.Fetch[*model.User](ctx, sessionFrom(ctx), userID)
	if err != nil {
		return nil, err
	}
	if err := body.require("name"); err != nil {
		return nil, err
	}
	name, err := body.stringField("name")
	if err != nil {
		return nil, err
	}

	params := &CreatePlaceParams{CityID: city.ID, UserID: user.ID, Name: name}
	if err := body.decode(&params.Detail); err != nil {
		return nil, err
	}
	return params, nil
}

// handleCreatePlace は都市に宿泊施設を作成するハンドラーです。
func (s *Server) handleCreatePlace(w http.ResponseWriter, r *http.Request) {
	// 親の都市の存在確認
	city, err := fetchPath[*model.City](r, "city_id")
	if err != nil {
		s.writeError(w, err, "create place")
		return
	}

	params, err := NewCreatePlaceParams(r, city)
	if err != nil {
		s.writeError(w, err, "create place")
		return
	}

	place, err := model.NewPlace(params.CityID, params.UserID, params.Name)
	if err != nil {
		s.writeError(w, invalid(err), "create place")
		return
	}
	place.Apply(params.Detail)
	s.save(w, r, place, http.StatusCreated)
}

// handleUpdatePlace は宿泊施設を更新するハンドラーです。city_idとuser_idは変更できません。
func (s *Server) handleUpdatePlace(w http.ResponseWriter, r *http.Request) {
	place, err := fetchPath[*model.Place](r, "place_id")
	if err != nil {
		s.writeError(w, err, "update place")
		return
	}

	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, "update place")
		return
	}
	var upd model.PlaceUpdate
	if err := body.decode(&upd); err != nil {
		s.writeError(w, err, "update place")
		return
	}

	place.Apply(upd)
	s.save(w, r, place, http.StatusOK)
}
