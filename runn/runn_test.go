package runn

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/k1LoW/runn"
	"github.com/stsysd/hbnb/api"
	"github.com/stsysd/hbnb/config"
	"github.com/stsysd/hbnb/db"
	"github.com/stsysd/hbnb/store"
)

// startServer はストアを使うAPIサーバーをhttptestで起動します。
func startServer(t *testing.T, st store.Store, cfg *config.Config) *httptest.Server {
	t.Helper()
	server := api.NewServer(st, cfg, log.New(io.Discard))
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
	})
	return ts
}

// runBooks はtestdata以下のすべてのランブックを実行します。
func runBooks(t *testing.T, ts *httptest.Server) {
	t.Helper()
	ctx := context.Background()
	opts := []runn.Option{
		runn.T(t),
		runn.Runner("req", ts.URL),
	}
	o, err := runn.Load("testdata/**/*.yml", opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.RunN(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestRouterFileStorage(t *testing.T) {
	// 設定の読み込み
	cfg, err := config.Parse([]string{"--file-path", filepath.Join(t.TempDir(), "file.json")})
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	fileStore, err := store.NewFileStore(cfg.FilePath)
	if err != nil {
		t.Fatalf("Failed to initialize file store: %v", err)
	}
	defer fileStore.Close()

	runBooks(t, startServer(t, fileStore, cfg))
}

func TestRouterDBStorage(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "hbnb.db")
	cfg, err := config.Parse([]string{"--storage", "db", "--db-driver", "sqlite3", "--db-dsn", dsn})
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	// SQLiteストアの初期化（マイグレーション関数を渡す）
	sqlStore, err := store.NewSQLStore(cfg.DBDriver, cfg.DBDSN, db.Migrator(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("Failed to initialize SQL store: %v", err)
	}
	defer sqlStore.Close()

	runBooks(t, startServer(t, sqlStore, cfg))
}
