package store

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stsysd/hbnb/db"
	"github.com/stsysd/hbnb/model"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain path", "hbnb.db", "hbnb.db?_foreign_keys=on&_busy_timeout=5000"},
		{"with params", "hbnb.db?cache=shared", "hbnb.db?cache=shared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sqliteDSN(tt.in); got != tt.want {
				t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeLayoutOrdering(t *testing.T) {
	// 文字列の順序と時刻の順序が一致すること
	a := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b := a.Add(1500 * time.Microsecond)
	c := a.Add(2 * time.Second)

	sa, sb, sc := a.Format(timeLayout), b.Format(timeLayout), c.Format(timeLayout)
	if !(sa < sb && sb < sc) {
		t.Errorf("Expected %s < %s < %s", sa, sb, sc)
	}
	if len(sa) != len(sc) {
		t.Errorf("Expected fixed width, got %d and %d", len(sa), len(sc))
	}
}

func TestUpsertSQL(t *testing.T) {
	query := tables[model.KindState].upsertSQL()
	for _, part := range []string{
		"INSERT INTO states (id, created_at, updated_at, name)",
		"VALUES (:id, :created_at, :updated_at, :name)",
		"ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at, name = excluded.name",
	} {
		if !strings.Contains(query, part) {
			t.Errorf("Expected %q in %q", part, query)
		}
	}
}

func TestSQLStoreReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLiteStore(dir, db.Migrator(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	sess, err := s.Session(ctx)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	state, _ := model.NewState("Oregon")
	mustCommit(t, sess, state)
	sess.Close()
	s.Close()

	// マイグレーションは再実行しても問題ない
	reopened, err := NewSQLiteStore(dir, db.Migrator(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := Fetch[*model.State](ctx, openSession(t, reopened), state.ID)
	if err != nil {
		t.Fatalf("Failed to get state: %v", err)
	}
	if got.Name != "Oregon" {
		t.Errorf("Expected Name Oregon, got %s", got.Name)
	}
}

func TestNewSQLStoreUnsupportedDriver(t *testing.T) {
	_, err := NewSQLStore("mysql", "whatever", db.Migrator(log.New(io.Discard)))
	if err == nil {
		t.Error("Expected error for unsupported driver, got nil")
	}
}
