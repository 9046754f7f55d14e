// Package store は、データの永続化機能を提供します。
//
// バックエンドはファイル(JSONオブジェクトテーブル)とSQLデータベースの二種類で、
// どちらも同じSessionインターフェースを通して利用します。
package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/stsysd/hbnb/model"
)

// Store は永続化バックエンドです。リクエストごとにSessionを開きます。
type Store interface {
	// Session はリクエスト単位のセッションを開始します。
	Session(ctx context.Context) (Session, error)
	// Close はストアを閉じます。
	Close() error
}

// Session はリクエスト単位のストレージハンドルです。
// New と Delete の変更は Save を呼ぶまで確定せず、Close で破棄されます。
type Session interface {
	// Get は指定された種別とIDのエンティティを取得します。存在しない場合はmodel.ErrNotFoundを返します。
	Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error)
	// All は指定された種別のすべてのエンティティをIDをキーにして返します。
	All(ctx context.Context, kind model.Kind) (map[string]model.Entity, error)
	// New はエンティティの作成または更新を登録し、タイムスタンプを設定します。
	New(ctx context.Context, e model.Entity) error
	// Save は未確定の変更を確定します。
	Save(ctx context.Context) error
	// Delete はエンティティと、それに従属するエンティティの削除を登録します。
	Delete(ctx context.Context, e model.Entity) error
	// Count は指定された種別のエンティティ数を返します。
	Count(ctx context.Context, kind model.Kind) (int, error)
	// Close は未確定の変更を破棄してセッションを閉じます。
	Close() error

	Relations
	AmenityLinker
}

// Relations は親から子をたどるための操作です。
type Relations interface {
	// CitiesOf は州に属する都市を返します。
	CitiesOf(ctx context.Context, stateID string) ([]*model.City, error)
	// PlacesOf は都市に属する宿泊施設を返します。
	PlacesOf(ctx context.Context, cityID string) ([]*model.Place, error)
	// ReviewsOf は宿泊施設に対するレビューを返します。
	ReviewsOf(ctx context.Context, placeID string) ([]*model.Review, error)
}

// AmenityLinker は Place と Amenity の多対多の関係を扱います。
// 表現(IDリストか結合テーブルか)はバックエンドごとに異なりますが、振る舞いは同じです。
type AmenityLinker interface {
	// LinkAmenity は紐付けを追加します。新しく紐付けた場合はtrue、既に紐付いていた場合はfalseを返します。
	LinkAmenity(ctx context.Context, placeID, amenityID string) (bool, error)
	// UnlinkAmenity は紐付けを解除します。紐付いていない場合はmodel.ErrNotLinkedを返します。
	UnlinkAmenity(ctx context.Context, placeID, amenityID string) error
	// ListAmenities は宿泊施設に紐付いた設備を返します。
	ListAmenities(ctx context.Context, placeID string) ([]*model.Amenity, error)
}

// Fetch は型を指定してエンティティを取得します。
func Fetch[T model.Entity](ctx context.Context, s Session, id string) (T, error) {
	var zero T
	e, err := s.Get(ctx, zero.Kind(), id)
	if err != nil {
		return zero, err
	}
	v, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected %T for %s %s: %w", e, zero.Kind(), id, model.ErrNotFound)
	}
	return v, nil
}

// List は型を指定してすべてのエンティティを作成日時順に取得します。
func List[T model.Entity](ctx context.Context, s Session) ([]T, error) {
	var zero T
	all, err := s.All(ctx, zero.Kind())
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(all))
	for _, e := range all {
		if v, ok := e.(T); ok {
			items = append(items, v)
		}
	}
	SortByCreated(items)
	return items, nil
}

// SortByCreated はエンティティを作成日時、IDの順に並べます。
func SortByCreated[T model.Entity](items []T) {
	slices.SortFunc(items, func(a, b T) int {
		ma, mb := a.Meta(), b.Meta()
		if c := ma.CreatedAt.Compare(mb.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(ma.ID, mb.ID)
	})
}

// stamp はIDと作成日時を補完し、更新日時を現在時刻にします。
func stamp(e model.Entity) {
	b := e.Meta()
	now := model.Now()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// prepare は保存前の共通処理です。タイムスタンプの設定、バリデーション、親の存在確認を行います。
func prepare(ctx context.Context, s Session, e model.Entity) error {
	stamp(e)
	if err := e.Validate(); err != nil {
		return model.NewValidationError(err.Error())
	}

	type ref struct {
		kind model.Kind
		id   string
	}
	var refs []ref
	switch v := e.(type) {
	case *model.City:
		refs = []ref{{model.KindState, v.StateID}}
	case *model.Place:
		refs = []ref{{model.KindCity, v.CityID}, {model.KindUser, v.UserID}}
	case *model.Review:
		refs = []ref{{model.KindPlace, v.PlaceID}, {model.KindUser, v.UserID}}
	}

	// 親リソースの存在確認（アプリケーションレベルでの整合性チェック）
	for _, r := range refs {
		if _, err := s.Get(ctx, r.kind, r.id); err != nil {
			return fmt.Errorf("%s references missing %s: %w", e.Kind(), r.kind, err)
		}
	}
	return nil
}

func castAll[T model.Entity](items []model.Entity) []T {
	out := make([]T, 0, len(items))
	for _, e := range items {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func notFound(kind model.Kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
}
