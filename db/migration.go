// Package db はデータベーススキーマのマイグレーションを提供します。
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/pressly/goose/v3"
)

//go:embed schema/*.sql
var embedMigrations embed.FS

// Dialect はドライバ名からgooseの方言名を返します。
func Dialect(driver string) (string, error) {
	switch driver {
	case "sqlite3":
		return "sqlite3", nil
	case "postgres":
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported database driver: %s", driver)
}

// Migrator はloggerを使うマイグレーション関数を返します。
func Migrator(logger *log.Logger) func(conn *sql.DB, driver string) error {
	return func(conn *sql.DB, driver string) error {
		return Migrate(conn, driver, logger)
	}
}

// Migrate はデータベースに対してマイグレーションを実行します。gooseの出力はloggerに流します。
func Migrate(conn *sql.DB, driver string, logger *log.Logger) error {
	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}

	// SQLiteでは外部キー制約を有効化
	if dialect == "sqlite3" {
		if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	// goose の設定
	if logger == nil {
		logger = log.Default()
	}
	goose.SetLogger(logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}))
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// マイグレーションを実行
	if err := goose.Up(conn, "schema"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
