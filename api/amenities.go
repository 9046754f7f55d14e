package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
)

func (s *Server) handleListAmenities(w http.ResponseWriter, r *http.Request) {
	listAll[*model.Amenity](s, w, r)
}

func (s *Server) handleGetAmenity(w http.ResponseWriter, r *http.Request) {
	getOne[*model.Amenity](s, w, r, "amenity_id")
}

// handleDeleteAmenity は設備を削除し、すべての宿泊施設から紐付けを外します。
func (s *Server) handleDeleteAmenity(w http.ResponseWriter, r *http.Request) {
	deleteOne[*model.Amenity](s, w, r, "amenity_id")
}

func (s *Server) handleCreateAmenity(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, "create amenity")
		return
	}
	if err := body.require("name"); err != nil {
		s.writeError(w, err, "create amenity")
		return
	}

	name, err := body.stringField("name")
	if err != nil {
		s.writeError(w, err, "create amenity")
		return
	}

	amenity, err := model.NewAmenity(name)
	if err != nil {
		s.writeError(w, invalid(err), "create amenity")
		return
	}
	s.save(w, r, amenity, http.StatusCreated)
}

func (s *Server) handleUpdateAmenity(w http.ResponseWriter, r *http.Request) {
	amenity, err := fetchPath[*model.Amenity](r, "amenity_id")
	if err != nil {
		s.writeError(w, err, "update amenity")
		return
	}

	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, "update amenity")
		return
	}
	var upd model.AmenityUpdate
	if err := body.decode(&upd); err != nil {
		s.writeError(w, err, "update amenity")
		return
	}

	amenity.Apply(upd)
	s.save(w, r, amenity, http.StatusOK)
}
