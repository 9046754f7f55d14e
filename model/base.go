// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind はリソースの種類を表します。
type Kind string

const (
	KindState   Kind = "State"
	KindCity    Kind = "City"
	KindAmenity Kind = "Amenity"
	KindUser    Kind = "User"
	KindPlace   Kind = "Place"
	KindReview  Kind = "Review"
)

var collections = map[Kind]string{
	KindState:   "states",
	KindCity:    "cities",
	KindAmenity: "amenities",
	KindUser:    "users",
	KindPlace:   "places",
	KindReview:  "reviews",
}

// Kinds はすべてのリソース種別を依存関係順に返します。
func Kinds() []Kind {
	return []Kind{KindState, KindCity, KindAmenity, KindUser, KindPlace, KindReview}
}

// ParseKind はクラス名からKindを取得します。
func ParseKind(class string) (Kind, error) {
	k := Kind(class)
	if _, ok := collections[k]; !ok {
		return "", fmt.Errorf("unknown kind %q", class)
	}
	return k, nil
}

// Collection はAPIパスや統計で使われるコレクション名を返します。
func (k Kind) Collection() string {
	return collections[k]
}

// Entity はすべてのリソースが実装するインターフェースです。
type Entity interface {
	Kind() Kind
	Meta() *Base
	Validate() error
}

// New は指定された種別の空のエンティティを返します。
func New(k Kind) (Entity, error) {
	switch k {
	case KindState:
		return &State{}, nil
	case KindCity:
		return &City{}, nil
	case KindAmenity:
		return &Amenity{}, nil
	case KindUser:
		return &User{}, nil
	case KindPlace:
		return &Place{}, nil
	case KindReview:
		return &Review{}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", k)
}

// Clone はエンティティのコピーを返します。
func Clone(e Entity) Entity {
	switch v := e.(type) {
	case *State:
		c := *v
		return &c
	case *City:
		c := *v
		return &c
	case *Amenity:
		c := *v
		return &c
	case *User:
		c := *v
		return &c
	case *Place:
		c := *v
		return &c
	case *Review:
		c := *v
		return &c
	}
	return e
}

// Base はすべてのリソースに共通する識別子とタイムスタンプです。
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Now は永続化に使う精度(マイクロ秒)に丸めた現在時刻を返します。
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newBase() Base {
	now := Now()
	return Base{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Meta はBase自身を返します。
func (b *Base) Meta() *Base {
	return b
}

func (b *Base) validate() error {
	if b.ID == "" {
		return errors.New("id is required")
	}
	if b.CreatedAt.IsZero() {
		return errors.New("created_at is required")
	}
	if b.UpdatedAt.IsZero() {
		return errors.New("updated_at is required")
	}
	return nil
}
