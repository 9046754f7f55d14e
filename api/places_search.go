package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/stsysd/hbnb/model"
	"github.com/stsysd/hbnb/store"
)

// NewSearchPlacesParams creates a search filter from HTTP request.
func NewSearchPlacesParams(r *http.Request) (*model.SearchFilter, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var filter model.SearchFilter
	if err := body.decode(&filter); err != nil {
		return nil, err
	}
	return &filter, nil
}

// handleSearchPlaces は州・都市・設備で宿泊施設を検索するハンドラーです。
func (s *Server) handleSearchPlaces(w http.ResponseWriter, r *http.Request) {
	filter, err := NewSearchPlacesParams(r)
	if err != nil {
		s.writeError(w, err, "search places")
		return
	}

	places, err := searchPlaces(r.Context(), sessionFrom(r.Context()), filter)
	if err != nil {
		s.writeError(w, err, "search places")
		return
	}
	s.writeJSON(w, renderAll(places), http.StatusOK)
}

// searchPlaces は検索条件に一致する宿泊施設を作成日時順に返します。
// 州と都市は和集合、設備はすべてを持つものに絞り込みます。存在しないIDは無視します。
func searchPlaces(ctx context.Context, sess store.Session, filter *model.SearchFilter) ([]*model.Place, error) {
	if filter.IsEmpty() {
		return store.List[*model.Place](ctx, sess)
	}

	var candidates []*model.Place
	if filter.HasLocation() {
		seen := make(map[string]bool)
		add := func(cityID string) error {
			places, err := sess.PlacesOf(ctx, cityID)
			if err != nil {
				return err
			}
			for _, p := range places {
				if !seen[p.ID] {
					seen[p.ID] = true
					candidates = append(candidates, p)
				}
			}
			return nil
		}

		for _, stateID := range filter.States {
			cities, err := sess.CitiesOf(ctx, stateID)
			if err != nil {
				return nil, err
			}
			for _, c := range cities {
				if err := add(c.ID); err != nil {
					return nil, err
				}
			}
		}
		for _, cityID := range filter.Cities {
			if err := add(cityID); err != nil {
				return nil, err
			}
		}
	} else {
		all, err := store.List[*model.Place](ctx, sess)
		if err != nil {
			return nil, err
		}
		candidates = all
	}

	if len(filter.Amenities) > 0 {
		var matched []*model.Place
		for _, p := range candidates {
			ok, err := hasAllAmenities(ctx, sess, p.ID, filter.Amenities)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, p)
			}
		}
		candidates = matched
	}

	store.SortByCreated(candidates)
	return candidates, nil
}

func hasAllAmenities(ctx context.Context, sess store.Session, placeID string, want []string) (bool, error) {
	amenities, err := sess.ListAmenities(ctx, placeID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	have := make(map[string]bool, len(amenities))
	for _, a := range amenities {
		have[a.ID] = true
	}
	for _, id := range want {
		if !have[id] {
			return false, nil
		}
	}
	return true, nil
}
