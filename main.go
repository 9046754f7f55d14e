// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/stsysd/hbnb/api"
	"github.com/stsysd/hbnb/config"
	"github.com/stsysd/hbnb/db"
	"github.com/stsysd/hbnb/store"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "hbnb",
		Level:           cfg.Level(),
		ReportTimestamp: true,
	})

	// ストレージの初期化
	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "storage", cfg.Storage, "err", err)
	}
	defer st.Close()
	logger.Info("Storage ready", "storage", cfg.Storage)

	// サーバーインスタンスの作成
	server := api.NewServer(st, cfg, logger)

	// サーバーの起動
	if err := server.Run(cfg.Addr()); err != nil {
		logger.Fatal("Server stopped", "err", err)
	}
}

// openStore は設定に応じてファイルストアかSQLストアを開きます。
func openStore(cfg *config.Config, logger *log.Logger) (store.Store, error) {
	if cfg.Storage == config.StorageDB {
		// マイグレーション関数を渡す
		return store.NewSQLStore(cfg.DBDriver, cfg.DBDSN, db.Migrator(logger.WithPrefix("migrate")))
	}
	return store.NewFileStore(cfg.FilePath)
}
