package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stsysd/hbnb/model"
)

// timeLayout は日時を文字列で保存する際のフォーマットです。固定長なので文字列比較で順序付けできます。
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// MigrationFunc はデータベーススキーマを準備する関数です。
type MigrationFunc func(conn *sql.DB, driver string) error

// SQLStore はリレーショナルデータベースを使用したStoreの実装です。
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// NewSQLStore は新しいSQLStoreを作成します。driverは "sqlite3" または "postgres" です。
func NewSQLStore(driver, dsn string, migrate MigrationFunc) (*SQLStore, error) {
	if driver == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}

	// データベースへの接続
	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	// マイグレーションの実行
	if err := migrate(conn.DB, driver); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return &SQLStore{db: conn, driver: driver}, nil
}

// NewSQLiteStore は dataDir 配下の hbnb.db を使うSQLStoreを作成します。
func NewSQLiteStore(dataDir string, migrate MigrationFunc) (*SQLStore, error) {
	// データディレクトリの作成（存在しない場合）
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return NewSQLStore("sqlite3", filepath.Join(dataDir, "hbnb.db"), migrate)
}

// sqliteDSN は接続ごとに外部キー制約を有効にするパラメータを付与します。
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Session はリクエスト単位のセッションを開始します。トランザクションは最初の書き込みで開始されます。
func (s *SQLStore) Session(ctx context.Context) (Session, error) {
	return &sqlSession{store: s}, nil
}

// Close はデータベース接続を閉じます。
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type baseRow struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func toBaseRow(b *model.Base) baseRow {
	return baseRow{
		ID:        b.ID,
		CreatedAt: b.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: b.UpdatedAt.UTC().Format(timeLayout),
	}
}

func (r baseRow) base() (model.Base, error) {
	// 文字列から時間に変換
	createdAt, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return model.Base{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(timeLayout, r.UpdatedAt)
	if err != nil {
		return model.Base{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return model.Base{ID: r.ID, CreatedAt: createdAt, UpdatedAt: updatedAt}, nil
}

type stateRow struct {
	baseRow
	Name string `db:"name"`
}

func (r stateRow) entity() (model.Entity, error) {
	b, err := r.base()
	if err != nil {
		return nil, err
	}
	return &model.State{Base: b, Name: r.Name}, nil
}

type cityRow struct {
	baseRow
	StateID string `db:"state_id"`
	Name    string `db:"name"`
}

func (r cityRow) entity() (model.Entity, error) {
	b, err := r.base()
	if err != nil {
		return nil, err
	}
	return &model.City{Base: b, StateID: r.StateID, Name: r.Name}, nil
}

type amenityRow struct {
	baseRow
	Name string `db:"name"`
}

func (r amenityRow) entity() (model.Entity, error) {
	b, err := r.base()
	if err != nil {
		return nil, err
	}
	return &model.Amenity{Base: b, Name: r.Name}, nil
}

type userRow struct {
	baseRow
	Email     string `db:"email"`
	Password  string `db:"password"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

func (r userRow) entity() (model.Entity, error) {
	b, err := r.base()
	if err != nil {
		return nil, err
	}
	return &model.User{
		Base:      b,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}, nil
}

type placeRow struct {
	baseRow
	CityID          string  `db:"city_id"`
	UserID          string  `db:"user_id"`
	Name            string  `db:"name"`
	Description     string  `db:"description"`
	NumberRooms     int     `db:"number_rooms"`
	NumberBathrooms int     `db:"number_bathrooms"`
	MaxGuest        int     `db:"max_guest"`
	PriceByNight    int     `db:"price_by_night"`
	Latitude        float64 `db:"latitude"`
	Longitude       float64 `db:"longitude"`
}

func (r placeRow) entity() (model.Entity, error) {
	b, err := r.base()
	if err != nil {
		return nil, err
	}
	return &model.Place{
		Base:            b,
		CityID:          r.CityID,
		UserID:          r.UserID,
		Name:            r.Name,
		Description:     r.Description,
		NumberRooms:     r.NumberRooms,
		NumberBathrooms: r.NumberBathrooms,
		MaxGuest:        r.MaxGuest,
		PriceByNight:    r.PriceByNight,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
	}, nil
}

type reviewRow struct {
	baseRow
	PlaceID string `db:"place_id"`
	UserID  string `db:"user_id"`
	Text    string `db:"text"`
}

func (r reviewRow) entity() (model.Entity, error) {
	b, err := r.base()
	if err != nil {
		return nil, err
	}
	return &model.Review{Base: b, PlaceID: r.PlaceID, UserID: r.UserID, Text: r.Text}, nil
}

type row interface {
	entity() (model.Entity, error)
}

// selectInto はクエリ結果を行の型で受け取り、エンティティに変換します。
func selectInto[R row](ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]model.Entity, error) {
	var rows []R
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	items := make([]model.Entity, 0, len(rows))
	for _, r := range rows {
		e, err := r.entity()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}

// table は種別ごとのテーブル定義です。
type table struct {
	name       string
	columns    []string
	toRow      func(model.Entity) any
	selectRows func(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]model.Entity, error)
}

var baseColumns = []string{"id", "created_at", "updated_at"}

var tables = map[model.Kind]*table{
	model.KindState: {
		name:    "states",
		columns: append(baseColumns[:3:3], "name"),
		toRow: func(e model.Entity) any {
			v := e.(*model.State)
			return stateRow{baseRow: toBaseRow(&v.Base), Name: v.Name}
		},
		selectRows: selectInto[stateRow],
	},
	model.KindCity: {
		name:    "cities",
		columns: append(baseColumns[:3:3], "state_id", "name"),
		toRow: func(e model.Entity) any {
			v := e.(*model.City)
			return cityRow{baseRow: toBaseRow(&v.Base), StateID: v.StateID, Name: v.Name}
		},
		selectRows: selectInto[cityRow],
	},
	model.KindAmenity: {
		name:    "amenities",
		columns: append(baseColumns[:3:3], "name"),
		toRow: func(e model.Entity) any {
			v := e.(*model.Amenity)
			return amenityRow{baseRow: toBaseRow(&v.Base), Name: v.Name}
		},
		selectRows: selectInto[amenityRow],
	},
	model.KindUser: {
		name:    "users",
		columns: append(baseColumns[:3:3], "email", "password", "first_name", "last_name"),
		toRow: func(e model.Entity) any {
			v := e.(*model.User)
			return userRow{
				baseRow:   toBaseRow(&v.Base),
				Email:     v.Email,
				Password:  v.Password,
				FirstName: v.FirstName,
				LastName:  v.LastName,
			}
		},
		selectRows: selectInto[userRow],
	},
	model.KindPlace: {
		name: "places",
		columns: append(baseColumns[:3:3], "city_id", "user_id", "name", "description",
			"number_rooms", "number_bathrooms", "max_guest", "price_by_night", "latitude", "longitude"),
		toRow: func(e model.Entity) any {
			v := e.(*model.Place)
			return placeRow{
				baseRow:         toBaseRow(&v.Base),
				CityID:          v.CityID,
				UserID:          v.UserID,
				Name:            v.Name,
				Description:     v.Description,
				NumberRooms:     v.NumberRooms,
				NumberBathrooms: v.NumberBathrooms,
				MaxGuest:        v.MaxGuest,
				PriceByNight:    v.PriceByNight,
				Latitude:        v.Latitude,
				Longitude:       v.Longitude,
			}
		},
		selectRows: selectInto[placeRow],
	},
	model.KindReview: {
		name:    "reviews",
		columns: append(baseColumns[:3:3], "place_id", "user_id", "text"),
		toRow: func(e model.Entity) any {
			v := e.(*model.Review)
			return reviewRow{baseRow: toBaseRow(&v.Base), PlaceID: v.PlaceID, UserID: v.UserID, Text: v.Text}
		},
		selectRows: selectInto[reviewRow],
	},
}

func tableFor(kind model.Kind) (*table, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("no table for kind %q", kind)
	}
	return t, nil
}

// selectSQL はエイリアス付きのSELECT句を返します。
func (t *table) selectSQL(alias string) string {
	cols := make([]string, len(t.columns))
	for i, c := range t.columns {
		cols[i] = alias + "." + c
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + t.name + " " + alias
}

// upsertSQL は名前付きパラメータを使ったINSERT ... ON CONFLICT文を返します。
func (t *table) upsertSQL() string {
	params := make([]string, len(t.columns))
	var sets []string
	for i, c := range t.columns {
		params[i] = ":" + c
		if c != "id" && c != "created_at" {
			sets = append(sets, c+" = excluded."+c)
		}
	}
	return "INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") + ") VALUES (" +
		strings.Join(params, ", ") + ") ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
}

type sqlSession struct {
	store *SQLStore
	tx    *sqlx.Tx
}

// queryer はトランザクション中であればトランザクションを、そうでなければ接続プールを返します。
func (s *sqlSession) queryer() sqlx.QueryerContext {
	if s.tx != nil {
		return s.tx
	}
	return s.store.db
}

// begin は必要であればトランザクションを開始します。
func (s *sqlSession) begin(ctx context.Context) (*sqlx.Tx, error) {
	if s.tx == nil {
		tx, err := s.store.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

func (s *sqlSession) rebind(query string) string {
	return s.store.db.Rebind(query)
}

func (s *sqlSession) selectWhere(ctx context.Context, kind model.Kind, where string, args ...any) ([]model.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := t.selectSQL("t")
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY t.created_at, t.id"
	items, err := t.selectRows(ctx, s.queryer(), s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	return items, nil
}

// Get は指定された種別とIDのエンティティを取得します。
func (s *sqlSession) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	items, err := s.selectWhere(ctx, kind, "t.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFound(kind, id)
	}
	return items[0], nil
}

// All は指定された種別のすべてのエンティティを返します。
func (s *sqlSession) All(ctx context.Context, kind model.Kind) (map[string]model.Entity, error) {
	items, err := s.selectWhere(ctx, kind, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Entity, len(items))
	for _, e := range items {
		out[e.Meta().ID] = e
	}
	return out, nil
}

// New はエンティティをトランザクション内で挿入または更新します。
func (s *sqlSession) New(ctx context.Context, e model.Entity) error {
	if err := prepare(ctx, s, e); err != nil {
		return err
	}
	t, err := tableFor(e.Kind())
	if err != nil {
		return err
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, t.upsertSQL(), t.toRow(e)); err != nil {
		return fmt.Errorf("failed to save %s: %w", e.Kind(), err)
	}
	return nil
}

// Delete はエンティティを削除します。従属する行は外部キーのON DELETE CASCADEで削除されます。
func (s *sqlSession) Delete(ctx context.Context, e model.Entity) error {
	t, err := tableFor(e.Kind())
	if err != nil {
		return err
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, s.rebind("DELETE FROM "+t.name+" WHERE id = ?"), e.Meta().ID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", e.Kind(), err)
	}

	// 削除された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound(e.Kind(), e.Meta().ID)
	}
	return nil
}

// Save はトランザクションをコミットします。
func (s *sqlSession) Save(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Count は指定された種別の行数を返します。
func (s *sqlSession) Count(ctx context.Context, kind model.Kind) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := sqlx.GetContext(ctx, s.queryer(), &n, "SELECT COUNT(*) FROM "+t.name); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return n, nil
}

// Close はコミットされていないトランザクションをロールバックします。
func (s *sqlSession) Close() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// CitiesOf は州に属する都市を返します。
func (s *sqlSession) CitiesOf(ctx context.Context, stateID string) ([]*model.City, error) {
	items, err := s.selectWhere(ctx, model.KindCity, "t.state_id = ?", stateID)
	if err != nil {
		return nil, err
	}
	return castAll[*model.City](items), nil
}

// PlacesOf は都市に属する宿泊施設を返します。
func (s *sqlSession) PlacesOf(ctx context.Context, cityID string) ([]*model.Place, error) {
	items, err := s.selectWhere(ctx, model.KindPlace, "t.city_id = ?", cityID)
	if err != nil {
		return nil, err
	}
	return castAll[*model.Place](items), nil
}

// ReviewsOf は宿泊施設に対するレビューを返します。
func (s *sqlSession) ReviewsOf(ctx context.Context, placeID string) ([]*model.Review, error) {
	items, err := s.selectWhere(ctx, model.KindReview, "t.place_id = ?", placeID)
	if err != nil {
		return nil, err
	}
	return castAll[*model.Review](items), nil
}

// checkLinkTargets はPlaceとAmenityの存在を確認します。
func (s *sqlSession) checkLinkTargets(ctx context.Context, placeID, amenityID string) error {
	if _, err := s.Get(ctx, model.KindPlace, placeID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, model.KindAmenity, amenityID); err != nil {
		return err
	}
	return nil
}

// LinkAmenity はplace_amenityに行を追加します。
func (s *sqlSession) LinkAmenity(ctx context.Context, placeID, amenityID string) (bool, error) {
	if err := s.checkLinkTargets(ctx, placeID, amenityID); err != nil {
		return false, err
	}

	var n int
	err := sqlx.GetContext(ctx, s.queryer(), &n,
		s.rebind("SELECT COUNT(*) FROM place_amenity WHERE place_id = ? AND amenity_id = ?"), placeID, amenityID)
	if err != nil {
		return false, fmt.Errorf("failed to query place_amenity: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	_, err = tx.ExecContext(ctx,
		s.rebind("INSERT INTO place_amenity (place_id, amenity_id) VALUES (?, ?)"), placeID, amenityID)
	if err != nil {
		return false, fmt.Errorf("failed to link amenity: %w", err)
	}
	if err := s.touchPlace(ctx, tx, placeID); err != nil {
		return false, err
	}
	return true, nil
}

// UnlinkAmenity はplace_amenityから行を削除します。
func (s *sqlSession) UnlinkAmenity(ctx context.Context, placeID, amenityID string) error {
	if err := s.checkLinkTargets(ctx, placeID, amenityID); err != nil {
		return err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx,
		s.rebind("DELETE FROM place_amenity WHERE place_id = ? AND amenity_id = ?"), placeID, amenityID)
	if err != nil {
		return fmt.Errorf("failed to unlink amenity: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotLinked
	}
	return s.touchPlace(ctx, tx, placeID)
}

// touchPlace は紐付けの変更に合わせてPlaceのupdated_atを更新します。
func (s *sqlSession) touchPlace(ctx context.Context, tx *sqlx.Tx, placeID string) error {
	_, err := tx.ExecContext(ctx,
		s.rebind("UPDATE places SET updated_at = ? WHERE id = ?"), model.Now().UTC().Format(timeLayout), placeID)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	return nil
}

// ListAmenities は結合テーブル経由でPlaceの設備を返します。
func (s *sqlSession) ListAmenities(ctx context.Context, placeID string) ([]*model.Amenity, error) {
	if _, err := s.Get(ctx, model.KindPlace, placeID); err != nil {
		return nil, err
	}

	t := tables[model.KindAmenity]
	query := t.selectSQL("t") +
		" JOIN place_amenity pa ON pa.amenity_id = t.id WHERE pa.place_id = ? ORDER BY t.created_at, t.id"
	items, err := t.selectRows(ctx, s.queryer(), s.rebind(query), placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query place amenities: %w", err)
	}
	return castAll[*model.Amenity](items), nil
}
