package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
)

// handleListPlaceAmenities は宿泊施設に紐付いた設備の一覧を返すハンドラーです。
func (s *Server) handleListPlaceAmenities(w http.ResponseWriter, r *http.Request) {
	place, err := fetchPath[*model.Place](r, "place_id")
	if err != nil {
		s.writeError(w, err, "list place amenities")
		return
	}

	amenities, err := sessionFrom(r.Context()).ListAmenities(r.Context(), place.ID)
	if err != nil {
		s.writeError(w, err, "list place amenities")
		return
	}
	s.writeJSON(w, renderAll(amenities), http.StatusOK)
}

// PlaceAmenityParams represents the place and amenity named by the path.
type PlaceAmenityParams struct {
	Place   *model.Place
	Amenity *model.Amenity
}

// NewPlaceAmenityParams resolves both path parameters. The place is looked up first.
func NewPlaceAmenityParams(r *http.Request) (*PlaceAmenityParams, error) {
	place, err := fetchPath[*model.Place](r, "place_id")
	if err != nil {
		return nil, err
	}
	amenity, err := fetchPath[*model.Amenity](r, "amenity_id")
	if err != nil {
		return nil, err
	}
	return &PlaceAmenityParams{Place: place, Amenity: amenity}, nil
}

// handleLinkPlaceAmenity は宿泊施設に設備を紐付けるハンドラーです。
// 新しく紐付けた場合は201、既に紐付いていた場合は200で設備を返します。
func (s *Server) handleLinkPlaceAmenity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	params, err := NewPlaceAmenityParams(r)
	if err != nil {
		s.writeError(w, err, "link amenity")
		return
	}

	created, err := sess.LinkAmenity(ctx, params.Place.ID, params.Amenity.ID)
	if err != nil {
		s.writeError(w, err, "link amenity")
		return
	}
	if !created {
		s.writeJSON(w, params.Amenity, http.StatusOK)
		return
	}
	if err := sess.Save(ctx); err != nil {
		s.writeError(w, err, "link amenity")
		return
	}
	s.writeJSON(w, params.Amenity, http.StatusCreated)
}

// handleUnlinkPlaceAmenity は宿泊施設から設備の紐付けを外すハンドラーです。
// 紐付いていない場合は404を返します。
func (s *Server) handleUnlinkPlaceAmenity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	params, err := NewPlaceAmenityParams(r)
	if err != nil {
		s.writeError(w, err, "unlink amenity")
		return
	}

	if err := sess.UnlinkAmenity(ctx, params.Place.ID, params.Amenity.ID); err != nil {
		s.writeError(w, err, "unlink amenity")
		return
	}
	if err := sess.Save(ctx); err != nil {
		s.writeError(w, err, "unlink amenity")
		return
	}
	s.writeJSON(w, emptyObject, http.StatusOK)
}
