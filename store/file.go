package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/stsysd/hbnb/model"
)

// FileStore はJSONファイルに永続化するオブジェクトテーブルです。
// キーは "<Class>.<id>" 形式で、Placeの設備はドキュメント上のamenity_idsに保持します。
type FileStore struct {
	path    string
	mu      sync.RWMutex
	objects map[model.Kind]map[string]*document
}

// document はテーブルの1エントリです。
type document struct {
	entity     model.Entity
	amenityIDs []string
}

func (d *document) clone() *document {
	return &document{
		entity:     model.Clone(d.entity),
		amenityIDs: slices.Clone(d.amenityIDs),
	}
}

// NewFileStore は新しいFileStoreを作成し、既存のファイルがあれば読み込みます。
func NewFileStore(path string) (*FileStore, error) {
	// データディレクトリの作成（存在しない場合）
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	s := &FileStore{
		path:    path,
		objects: make(map[model.Kind]map[string]*document),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload はファイルからテーブルを読み込みます。ファイルが存在しない場合は空のテーブルになります。
func (s *FileStore) reload() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	objects := make(map[model.Kind]map[string]*document)
	for key, msg := range raw {
		doc, err := decodeDocument(msg)
		if err != nil {
			return fmt.Errorf("invalid object %s: %w", key, err)
		}
		kind := doc.entity.Kind()
		if objects[kind] == nil {
			objects[kind] = make(map[string]*document)
		}
		objects[kind][doc.entity.Meta().ID] = doc
	}

	s.mu.Lock()
	s.objects = objects
	s.mu.Unlock()
	return nil
}

func decodeDocument(msg json.RawMessage) (*document, error) {
	var header struct {
		Class      string   `json:"__class__"`
		AmenityIDs []string `json:"amenity_ids"`
	}
	if err := json.Unmarshal(msg, &header); err != nil {
		return nil, err
	}
	kind, err := model.ParseKind(header.Class)
	if err != nil {
		return nil, err
	}
	e, err := model.New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(msg, e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &document{entity: e, amenityIDs: header.AmenityIDs}, nil
}

func encodeDocument(doc *document) (json.RawMessage, error) {
	data, err := json.Marshal(doc.entity)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["__class__"], _ = json.Marshal(string(doc.entity.Kind()))
	if doc.entity.Kind() == model.KindPlace {
		ids := doc.amenityIDs
		if ids == nil {
			ids = []string{}
		}
		fields["amenity_ids"], _ = json.Marshal(ids)
	}
	return json.Marshal(fields)
}

// persist はテーブルをファイルに書き出します。一時ファイルに書いてから置き換えます。
func (s *FileStore) persist(objects map[model.Kind]map[string]*document) error {
	out := make(map[string]json.RawMessage)
	for kind, docs := range objects {
		for id, doc := range docs {
			msg, err := encodeDocument(doc)
			if err != nil {
				return fmt.Errorf("failed to encode %s.%s: %w", kind, id, err)
			}
			out[string(kind)+"."+id] = msg
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode objects: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hbnb-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // リネーム後は存在しないためエラーは無視

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write objects: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Session はリクエスト単位のセッションを開始します。
func (s *FileStore) Session(ctx context.Context) (Session, error) {
	return &fileSession{store: s, pending: make(map[model.Kind]map[string]*change)}, nil
}

// Close はFileStoreを閉じます。確定済みの変更は既にファイルに書き出されています。
func (s *FileStore) Close() error {
	return nil
}

// change は未確定の変更です。
type change struct {
	doc     *document
	deleted bool
}

type fileSession struct {
	store   *FileStore
	pending map[model.Kind]map[string]*change
}

func (sess *fileSession) stage(kind model.Kind, id string, c *change) {
	if sess.pending[kind] == nil {
		sess.pending[kind] = make(map[string]*change)
	}
	sess.pending[kind][id] = c
}

// lookup は未確定の変更を優先してドキュメントを探します。返り値は共有されるため変更してはいけません。
func (sess *fileSession) lookup(kind model.Kind, id string) (*document, bool) {
	if c, ok := sess.pending[kind][id]; ok {
		if c.deleted {
			return nil, false
		}
		return c.doc, true
	}
	sess.store.mu.RLock()
	defer sess.store.mu.RUnlock()
	doc, ok := sess.store.objects[kind][id]
	return doc, ok
}

// documents は未確定の変更を反映した指定種別のドキュメントを返します。
func (sess *fileSession) documents(kind model.Kind) map[string]*document {
	out := make(map[string]*document)
	sess.store.mu.RLock()
	for id, doc := range sess.store.objects[kind] {
		out[id] = doc
	}
	sess.store.mu.RUnlock()

	for id, c := range sess.pending[kind] {
		if c.deleted {
			delete(out, id)
		} else {
			out[id] = c.doc
		}
	}
	return out
}

func (sess *fileSession) entities(kind model.Kind, match func(model.Entity) bool) []model.Entity {
	var out []model.Entity
	for _, doc := range sess.documents(kind) {
		if match == nil || match(doc.entity) {
			out = append(out, model.Clone(doc.entity))
		}
	}
	SortByCreated(out)
	return out
}

// Get は指定された種別とIDのエンティティを取得します。
func (sess *fileSession) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	doc, ok := sess.lookup(kind, id)
	if !ok {
		return nil, notFound(kind, id)
	}
	return model.Clone(doc.entity), nil
}

// All は指定された種別のすべてのエンティティを返します。
func (sess *fileSession) All(ctx context.Context, kind model.Kind) (map[string]model.Entity, error) {
	out := make(map[string]model.Entity)
	for id, doc := range sess.documents(kind) {
		out[id] = model.Clone(doc.entity)
	}
	return out, nil
}

// New はエンティティの作成または更新を登録します。
func (sess *fileSession) New(ctx context.Context, e model.Entity) error {
	if err := prepare(ctx, sess, e); err != nil {
		return err
	}
	kind, id := e.Kind(), e.Meta().ID

	// 既存のPlaceであれば設備の紐付けを引き継ぐ
	var amenityIDs []string
	if prev, ok := sess.lookup(kind, id); ok {
		amenityIDs = slices.Clone(prev.amenityIDs)
	}
	sess.stage(kind, id, &change{doc: &document{entity: model.Clone(e), amenityIDs: amenityIDs}})
	return nil
}

// Delete はエンティティと従属するエンティティの削除を登録します。
func (sess *fileSession) Delete(ctx context.Context, e model.Entity) error {
	kind, id := e.Kind(), e.Meta().ID
	if _, ok := sess.lookup(kind, id); !ok {
		return notFound(kind, id)
	}
	sess.deleteTree(kind, id)
	return nil
}

// deleteTree は削除をカスケードさせます。
func (sess *fileSession) deleteTree(kind model.Kind, id string) {
	sess.stage(kind, id, &change{deleted: true})

	switch kind {
	case model.KindState:
		for _, c := range sess.entities(model.KindCity, func(e model.Entity) bool { return e.(*model.City).StateID == id }) {
			sess.deleteTree(model.KindCity, c.Meta().ID)
		}
	case model.KindCity:
		for _, p := range sess.entities(model.KindPlace, func(e model.Entity) bool { return e.(*model.Place).CityID == id }) {
			sess.deleteTree(model.KindPlace, p.Meta().ID)
		}
	case model.KindUser:
		for _, p := range sess.entities(model.KindPlace, func(e model.Entity) bool { return e.(*model.Place).UserID == id }) {
			sess.deleteTree(model.KindPlace, p.Meta().ID)
		}
		for _, r := range sess.entities(model.KindReview, func(e model.Entity) bool { return e.(*model.Review).UserID == id }) {
			sess.deleteTree(model.KindReview, r.Meta().ID)
		}
	case model.KindPlace:
		for _, r := range sess.entities(model.KindReview, func(e model.Entity) bool { return e.(*model.Review).PlaceID == id }) {
			sess.deleteTree(model.KindReview, r.Meta().ID)
		}
	case model.KindAmenity:
		// 設備を参照しているPlaceから取り除く
		for placeID, doc := range sess.documents(model.KindPlace) {
			if !slices.Contains(doc.amenityIDs, id) {
				continue
			}
			next := doc.clone()
			next.amenityIDs = slices.DeleteFunc(next.amenityIDs, func(a string) bool { return a == id })
			sess.stage(model.KindPlace, placeID, &change{doc: next})
		}
	}
}

// Save は未確定の変更をテーブルに反映し、ファイルに書き出します。
func (sess *fileSession) Save(ctx context.Context) error {
	if len(sess.pending) == 0 {
		return nil
	}

	sess.store.mu.Lock()
	defer sess.store.mu.Unlock()

	next := make(map[model.Kind]map[string]*document, len(sess.store.objects))
	for kind, docs := range sess.store.objects {
		next[kind] = make(map[string]*document, len(docs))
		for id, doc := range docs {
			next[kind][id] = doc
		}
	}
	for kind, changes := range sess.pending {
		if next[kind] == nil {
			next[kind] = make(map[string]*document)
		}
		for id, c := range changes {
			if c.deleted {
				delete(next[kind], id)
			} else {
				next[kind][id] = c.doc
			}
		}
	}

	if err := sess.store.persist(next); err != nil {
		return err
	}
	sess.store.objects = next
	sess.pending = make(map[model.Kind]map[string]*change)
	return nil
}

// Count は指定された種別のエンティティ数を返します。
func (sess *fileSession) Count(ctx context.Context, kind model.Kind) (int, error) {
	return len(sess.documents(kind)), nil
}

// Close は未確定の変更を破棄します。
func (sess *fileSession) Close() error {
	sess.pending = make(map[model.Kind]map[string]*change)
	return nil
}

// CitiesOf は州に属する都市を返します。
func (sess *fileSession) CitiesOf(ctx context.Context, stateID string) ([]*model.City, error) {
	items := sess.entities(model.KindCity, func(e model.Entity) bool { return e.(*model.City).StateID == stateID })
	return castAll[*model.City](items), nil
}

// PlacesOf は都市に属する宿泊施設を返します。
func (sess *fileSession) PlacesOf(ctx context.Context, cityID string) ([]*model.Place, error) {
	items := sess.entities(model.KindPlace, func(e model.Entity) bool { return e.(*model.Place).CityID == cityID })
	return castAll[*model.Place](items), nil
}

// ReviewsOf は宿泊施設に対するレビューを返します。
func (sess *fileSession) ReviewsOf(ctx context.Context, placeID string) ([]*model.Review, error) {
	items := sess.entities(model.KindReview, func(e model.Entity) bool { return e.(*model.Review).PlaceID == placeID })
	return castAll[*model.Review](items), nil
}

// LinkAmenity はPlaceのamenity_idsに設備を追加します。
func (sess *fileSession) LinkAmenity(ctx context.Context, placeID, amenityID string) (bool, error) {
	doc, ok := sess.lookup(model.KindPlace, placeID)
	if !ok {
		return false, notFound(model.KindPlace, placeID)
	}
	if _, ok := sess.lookup(model.KindAmenity, amenityID); !ok {
		return false, notFound(model.KindAmenity, amenityID)
	}
	if slices.Contains(doc.amenityIDs, amenityID) {
		return false, nil
	}

	next := doc.clone()
	next.amenityIDs = append(next.amenityIDs, amenityID)
	stamp(next.entity)
	sess.stage(model.KindPlace, placeID, &change{doc: next})
	return true, nil
}

// UnlinkAmenity はPlaceのamenity_idsから設備を取り除きます。
func (sess *fileSession) UnlinkAmenity(ctx context.Context, placeID, amenityID string) error {
	doc, ok := sess.lookup(model.KindPlace, placeID)
	if !ok {
		return notFound(model.KindPlace, placeID)
	}
	if _, ok := sess.lookup(model.KindAmenity, amenityID); !ok {
		return notFound(model.KindAmenity, amenityID)
	}
	if !slices.Contains(doc.amenityIDs, amenityID) {
		return model.ErrNotLinked
	}

	next := doc.clone()
	next.amenityIDs = slices.DeleteFunc(next.amenityIDs, func(a string) bool { return a == amenityID })
	stamp(next.entity)
	sess.stage(model.KindPlace, placeID, &change{doc: next})
	return nil
}

// ListAmenities はPlaceのamenity_idsが指す設備を返します。
func (sess *fileSession) ListAmenities(ctx context.Context, placeID string) ([]*model.Amenity, error) {
	doc, ok := sess.lookup(model.KindPlace, placeID)
	if !ok {
		return nil, notFound(model.KindPlace, placeID)
	}

	amenities := make([]*model.Amenity, 0, len(doc.amenityIDs))
	for _, id := range doc.amenityIDs {
		a, ok := sess.lookup(model.KindAmenity, id)
		if !ok {
			continue
		}
		amenities = append(amenities, model.Clone(a.entity).(*model.Amenity))
	}
	SortByCreated(amenities)
	return amenities, nil
}
