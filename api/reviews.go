package api

import (
	"net/http"

	"github.com/stsysd/hbnb/model"
	"github.com/stsysd/hbnb/store"
)

// handleListReviews は宿泊施設に対するレビューの一覧を返すハンドラーです。
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	place, err := fetchPath[*model.Place](r, "place_id")
	if err != nil {
		s.writeError(w, err, "list reviews")
		return
	}

	reviews, err := sessionFrom(r.Context()).ReviewsOf(r.Context(), place.ID)
	if err != nil {
		s.writeError(w, err, "list reviews")
		return
	}
	s.writeJSON(w, renderAll(reviews), http.StatusOK)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	getOne[*model.Review](s, w, r, "review_id")
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	deleteOne[*model.Review](s, w, r, "review_id")
}

// CreateReviewParams represents parameters for creating a review.
type CreateReviewParams struct {
	PlaceID string
	UserID  string
	Text    string
}

// NewCreateReviewParams creates parameters for review creation from HTTP request.
func NewCreateReviewParams(r *http.Request, place *model.Place) (*CreateReviewParams, error) {
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
	if err := body.require("text"); err != nil {
		return nil, err
	}
	text, err := body.stringField("text")
	if err != nil {
		return nil, err
	}
	return &CreateReviewParams{PlaceID: place.ID, UserID: user.ID, Text: text}, nil
}

// handleCreateReview は宿泊施設にレビューを作成するハンドラーです。
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	place, err := fetchPath[*model.Place](r, "place_id")
	if err != nil {
		s.writeError(w, err, "create review")
		return
	}

	params, err := NewCreateReviewParams(r, place)
	if err != nil {
		s.writeError(w, err, "create review")
		return
	}

	review, err := model.NewReview(params.PlaceID, params.UserID, params.Text)
	if err != nil {
		s.writeError(w, invalid(err), "create review")
		return
	}
	s.save(w, r, review, http.StatusCreated)
}

// handleUpdateReview はレビューの本文を更新するハンドラーです。
func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	review, err := fetchPath[*model.Review](r, "review_id")
	if err != nil {
		s.writeError(w, err, "update review")
		return
	}

	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, "update review")
		return
	}
	var upd model.ReviewUpdate
	if err := body.decode(&upd); err != nil {
		s.writeError(w, err, "update review")
		return
	}

	review.Apply(upd)
	s.save(w, r, review, http.StatusOK)
}
