package store

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stsysd/hbnb/db"
	"github.com/stsysd/hbnb/model"
)

// backends はテスト対象のすべてのバックエンドを返します。
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "file.json"))
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	sqlStore, err := NewSQLiteStore(t.TempDir(), db.Migrator(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("Failed to create sql store: %v", err)
	}
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]Store{
		"file": fileStore,
		"sql":  sqlStore,
	}
}

// eachBackend はすべてのバックエンドに対してテストを実行します。
func eachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, s)
		})
	}
}

func openSession(t *testing.T, s Store) Session {
	t.Helper()
	sess, err := s.Session(context.Background())
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

// mustCommit はエンティティを登録して確定します。
func mustCommit(t *testing.T, sess Session, entities ...model.Entity) {
	t.Helper()
	ctx := context.Background()
	for _, e := range entities {
		if err := sess.New(ctx, e); err != nil {
			t.Fatalf("Failed to stage %s: %v", e.Kind(), err)
		}
	}
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
}

// fixture は州・都市・ユーザー・宿泊施設・レビュー・設備を一通り作成します。
type fixture struct {
	state   *model.State
	city    *model.City
	user    *model.User
	place   *model.Place
	review  *model.Review
	amenity *model.Amenity
}

func newFixture(t *testing.T, sess Session) *fixture {
	t.Helper()
	f := &fixture{}
	var err error
	if f.state, err = model.NewState("California"); err != nil {
		t.Fatal(err)
	}
	if f.city, err = model.NewCity(f.state.ID, "San Francisco"); err != nil {
		t.Fatal(err)
	}
	if f.user, err = model.NewUser("a@example.com", "pwd", "Ada", "Lovelace"); err != nil {
		t.Fatal(err)
	}
	if f.place, err = model.NewPlace(f.city.ID, f.user.ID, "Loft"); err != nil {
		t.Fatal(err)
	}
	if f.review, err = model.NewReview(f.place.ID, f.user.ID, "Great"); err != nil {
		t.Fatal(err)
	}
	if f.amenity, err = model.NewAmenity("Wifi"); err != nil {
		t.Fatal(err)
	}
	mustCommit(t, sess, f.state, f.city, f.user, f.place, f.review, f.amenity)
	return f
}

func TestCreateAndGet(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)

		state, err := model.NewState("California")
		if err != nil {
			t.Fatalf("Failed to create state model: %v", err)
		}
		mustCommit(t, sess, state)

		got, err := Fetch[*model.State](ctx, sess, state.ID)
		if err != nil {
			t.Fatalf("Failed to get state: %v", err)
		}
		if got.ID != state.ID {
			t.Errorf("Expected ID %s, got %s", state.ID, got.ID)
		}
		if got.Name != "California" {
			t.Errorf("Expected Name California, got %s", got.Name)
		}
		if !got.CreatedAt.Equal(state.CreatedAt) {
			t.Errorf("Expected CreatedAt %v, got %v", state.CreatedAt, got.CreatedAt)
		}
	})
}

func TestGetNonExistent(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		sess := openSession(t, s)

		_, err := sess.Get(context.Background(), model.KindState, "00000000-0000-4000-8000-000000000000")
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestNewRejectsMissingParent(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		sess := openSession(t, s)

		city, err := model.NewCity("00000000-0000-4000-8000-000000000000", "Nowhere")
		if err != nil {
			t.Fatalf("Failed to create city model: %v", err)
		}
		err = sess.New(context.Background(), city)
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestNewRejectsInvalidEntity(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		sess := openSession(t, s)

		err := sess.New(context.Background(), &model.State{})
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)
		f := newFixture(t, sess)

		place, err := Fetch[*model.Place](ctx, sess, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to get place: %v", err)
		}
		rooms := 3
		place.Apply(model.PlaceUpdate{NumberRooms: &rooms})
		mustCommit(t, sess, place)

		got, err := Fetch[*model.Place](ctx, sess, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to get place: %v", err)
		}
		if got.NumberRooms != 3 {
			t.Errorf("Expected NumberRooms 3, got %d", got.NumberRooms)
		}
		if !got.CreatedAt.Equal(f.place.CreatedAt) {
			t.Errorf("Expected CreatedAt %v, got %v", f.place.CreatedAt, got.CreatedAt)
		}
		if got.UpdatedAt.Before(f.place.UpdatedAt) {
			t.Errorf("Expected UpdatedAt after %v, got %v", f.place.UpdatedAt, got.UpdatedAt)
		}
	})
}

func TestCloseDiscardsPending(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		sess, err := s.Session(ctx)
		if err != nil {
			t.Fatalf("Failed to open session: %v", err)
		}
		state, _ := model.NewState("Nevada")
		if err := sess.New(ctx, state); err != nil {
			t.Fatalf("Failed to stage state: %v", err)
		}
		if err := sess.Close(); err != nil {
			t.Fatalf("Failed to close session: %v", err)
		}

		other := openSession(t, s)
		if _, err := other.Get(ctx, model.KindState, state.ID); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after Close, got %v", err)
		}
	})
}

func TestSaveIsVisibleToOtherSessions(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		mustCommit(t, openSession(t, s), &model.Amenity{Name: "Pool"})

		n, err := openSession(t, s).Count(ctx, model.KindAmenity)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 amenity, got %d", n)
		}
	})
}

func TestAllAndCount(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)
		newFixture(t, sess)

		want := map[model.Kind]int{
			model.KindState:   1,
			model.KindCity:    1,
			model.KindAmenity: 1,
			model.KindUser:    1,
			model.KindPlace:   1,
			model.KindReview:  1,
		}
		for kind, n := range want {
			got, err := sess.Count(ctx, kind)
			if err != nil {
				t.Fatalf("Failed to count %s: %v", kind, err)
			}
			if got != n {
				t.Errorf("Expected %d %s, got %d", n, kind, got)
			}
			all, err := sess.All(ctx, kind)
			if err != nil {
				t.Fatalf("Failed to list %s: %v", kind, err)
			}
			if len(all) != n {
				t.Errorf("Expected %d %s in All, got %d", n, kind, len(all))
			}
		}
	})
}

func TestListSortedByCreated(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)

		names := []string{"Alabama", "Texas", "Ohio"}
		for _, name := range names {
			state, _ := model.NewState(name)
			mustCommit(t, sess, state)
		}

		states, err := List[*model.State](ctx, sess)
		if err != nil {
			t.Fatalf("Failed to list states: %v", err)
		}
		if len(states) != len(names) {
			t.Fatalf("Expected %d states, got %d", len(names), len(states))
		}
		for i := 1; i < len(states); i++ {
			if states[i].CreatedAt.Before(states[i-1].CreatedAt) {
				t.Errorf("States not sorted by created_at at index %d", i)
			}
		}
	})
}

func TestRelations(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)
		f := newFixture(t, sess)

		other, _ := model.NewCity(f.state.ID, "Oakland")
		mustCommit(t, sess, other)

		cities, err := sess.CitiesOf(ctx, f.state.ID)
		if err != nil {
			t.Fatalf("Failed to get cities: %v", err)
		}
		if len(cities) != 2 {
			t.Errorf("Expected 2 cities, got %d", len(cities))
		}

		places, err := sess.PlacesOf(ctx, f.city.ID)
		if err != nil {
			t.Fatalf("Failed to get places: %v", err)
		}
		if len(places) != 1 || places[0].ID != f.place.ID {
			t.Errorf("Expected place %s, got %v", f.place.ID, places)
		}

		places, err = sess.PlacesOf(ctx, other.ID)
		if err != nil {
			t.Fatalf("Failed to get places: %v", err)
		}
		if len(places) != 0 {
			t.Errorf("Expected no places, got %d", len(places))
		}

		reviews, err := sess.ReviewsOf(ctx, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to get reviews: %v", err)
		}
		if len(reviews) != 1 || reviews[0].Text != "Great" {
			t.Errorf("Expected review Great, got %v", reviews)
		}
	})
}

func TestDeleteCascades(t *testing.T) {
	cases := []struct {
		name    string
		target  func(f *fixture) model.Entity
		removed []model.Kind
		kept    []model.Kind
	}{
		{
			name:    "state",
			target:  func(f *fixture) model.Entity { return f.state },
			removed: []model.Kind{model.KindState, model.KindCity, model.KindPlace, model.KindReview},
			kept:    []model.Kind{model.KindUser, model.KindAmenity},
		},
		{
			name:    "user",
			target:  func(f *fixture) model.Entity { return f.user },
			removed: []model.Kind{model.KindUser, model.KindPlace, model.KindReview},
			kept:    []model.Kind{model.KindState, model.KindCity, model.KindAmenity},
		},
		{
			name:    "place",
			target:  func(f *fixture) model.Entity { return f.place },
			removed: []model.Kind{model.KindPlace, model.KindReview},
			kept:    []model.Kind{model.KindState, model.KindCity, model.KindUser, model.KindAmenity},
		},
		{
			name:    "review",
			target:  func(f *fixture) model.Entity { return f.review },
			removed: []model.Kind{model.KindReview},
			kept:    []model.Kind{model.KindState, model.KindCity, model.KindUser, model.KindPlace, model.KindAmenity},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eachBackend(t, func(t *testing.T, s Store) {
				ctx := context.Background()
				sess := openSession(t, s)
				f := newFixture(t, sess)

				if err := sess.Delete(ctx, tc.target(f)); err != nil {
					t.Fatalf("Failed to delete: %v", err)
				}
				if err := sess.Save(ctx); err != nil {
					t.Fatalf("Failed to save: %v", err)
				}

				for _, kind := range tc.removed {
					if n, _ := sess.Count(ctx, kind); n != 0 {
						t.Errorf("Expected no %s, got %d", kind, n)
					}
				}
				for _, kind := range tc.kept {
					if n, _ := sess.Count(ctx, kind); n != 1 {
						t.Errorf("Expected 1 %s, got %d", kind, n)
					}
				}
			})
		})
	}
}

func TestDeleteNonExistent(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		sess := openSession(t, s)

		state, _ := model.NewState("Ghost")
		err := sess.Delete(context.Background(), state)
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestAmenityLinks(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)
		f := newFixture(t, sess)
		before := placeUpdatedAt(t, sess, f.place.ID)
		time.Sleep(2 * time.Millisecond)

		created, err := sess.LinkAmenity(ctx, f.place.ID, f.amenity.ID)
		if err != nil {
			t.Fatalf("Failed to link amenity: %v", err)
		}
		if !created {
			t.Error("Expected first link to be created")
		}
		if err := sess.Save(ctx); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		// 紐付けでPlaceのupdated_atが更新される
		linked := placeUpdatedAt(t, sess, f.place.ID)
		if !linked.After(before) {
			t.Errorf("Expected updated_at after link to be later than %v, got %v", before, linked)
		}
		time.Sleep(2 * time.Millisecond)

		// 二回目の紐付けは何もしない
		created, err = sess.LinkAmenity(ctx, f.place.ID, f.amenity.ID)
		if err != nil {
			t.Fatalf("Failed to link amenity: %v", err)
		}
		if created {
			t.Error("Expected second link to report existing")
		}

		amenities, err := sess.ListAmenities(ctx, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to list amenities: %v", err)
		}
		if len(amenities) != 1 || amenities[0].ID != f.amenity.ID {
			t.Errorf("Expected amenity %s, got %v", f.amenity.ID, amenities)
		}

		if err := sess.UnlinkAmenity(ctx, f.place.ID, f.amenity.ID); err != nil {
			t.Fatalf("Failed to unlink amenity: %v", err)
		}
		if err := sess.Save(ctx); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		if unlinked := placeUpdatedAt(t, sess, f.place.ID); !unlinked.After(linked) {
			t.Errorf("Expected updated_at after unlink to be later than %v, got %v", linked, unlinked)
		}

		err = sess.UnlinkAmenity(ctx, f.place.ID, f.amenity.ID)
		if !errors.Is(err, model.ErrNotLinked) {
			t.Errorf("Expected ErrNotLinked, got %v", err)
		}

		amenities, err = sess.ListAmenities(ctx, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to list amenities: %v", err)
		}
		if len(amenities) != 0 {
			t.Errorf("Expected no amenities, got %d", len(amenities))
		}
	})
}

// placeUpdatedAt は保存済みのPlaceのupdated_atを返します。
func placeUpdatedAt(t *testing.T, sess Session, id string) time.Time {
	t.Helper()
	place, err := Fetch[*model.Place](context.Background(), sess, id)
	if err != nil {
		t.Fatalf("Failed to get place: %v", err)
	}
	return place.UpdatedAt
}

func TestLinkAmenityMissingTargets(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)
		f := newFixture(t, sess)
		missing := "00000000-0000-4000-8000-000000000000"

		if _, err := sess.LinkAmenity(ctx, missing, f.amenity.ID); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing place, got %v", err)
		}
		if _, err := sess.LinkAmenity(ctx, f.place.ID, missing); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing amenity, got %v", err)
		}
		if _, err := sess.ListAmenities(ctx, missing); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing place, got %v", err)
		}
	})
}

func TestDeleteAmenityRemovesLinks(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)
		f := newFixture(t, sess)

		if _, err := sess.LinkAmenity(ctx, f.place.ID, f.amenity.ID); err != nil {
			t.Fatalf("Failed to link amenity: %v", err)
		}
		if err := sess.Save(ctx); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		if err := sess.Delete(ctx, f.amenity); err != nil {
			t.Fatalf("Failed to delete amenity: %v", err)
		}
		if err := sess.Save(ctx); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		amenities, err := sess.ListAmenities(ctx, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to list amenities: %v", err)
		}
		if len(amenities) != 0 {
			t.Errorf("Expected no amenities, got %d", len(amenities))
		}
		if n, _ := sess.Count(ctx, model.KindPlace); n != 1 {
			t.Errorf("Expected place to survive, got %d places", n)
		}
	})
}

func TestUpdatePlaceKeepsLinks(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess := openSession(t, s)
		f := newFixture(t, sess)

		if _, err := sess.LinkAmenity(ctx, f.place.ID, f.amenity.ID); err != nil {
			t.Fatalf("Failed to link amenity: %v", err)
		}
		if err := sess.Save(ctx); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		place, err := Fetch[*model.Place](ctx, sess, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to get place: %v", err)
		}
		name := "Penthouse"
		place.Apply(model.PlaceUpdate{Name: &name})
		mustCommit(t, sess, place)

		amenities, err := sess.ListAmenities(ctx, f.place.ID)
		if err != nil {
			t.Fatalf("Failed to list amenities: %v", err)
		}
		if len(amenities) != 1 {
			t.Errorf("Expected link to survive update, got %d amenities", len(amenities))
		}
	})
}
