// Package config はアプリケーション設定を管理します。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// ストレージの種類
const (
	StorageFile = "file"
	StorageDB   = "db"
)

// Config はアプリケーション全体の設定を保持します。
// コマンドラインフラグが優先され、未指定の場合は環境変数、デフォルト値の順で決まります。
type Config struct {
	Host     string `long:"host" env:"HBNB_API_HOST" description:"Address the API server listens on" default:"0.0.0.0"`
	Port     int    `long:"port" env:"HBNB_API_PORT" description:"Port the API server listens on" default:"5000"`
	Storage  string `long:"storage" env:"HBNB_TYPE_STORAGE" description:"Storage backend, either 'file' or 'db'" default:"file"`
	FilePath string `long:"file-path" env:"HBNB_FILE_PATH" description:"JSON file used by the file storage" default:"file.json"`
	DBDriver string `long:"db-driver" env:"HBNB_DB_DRIVER" description:"Database driver, either 'sqlite3' or 'postgres'" default:"sqlite3"`
	DBDSN    string `long:"db-dsn" env:"HBNB_DB_DSN" description:"Database connection string" default:"hbnb.db"`
	LogLevel string `long:"log-level" env:"HBNB_LOG_LEVEL" description:"Level to log messages at" default:"info"`
}

// Load は .env ファイルを読み込んだ後、引数と環境変数から設定を生成します。
// --help が指定された場合は flags.ErrHelp 型の *flags.Error を返します。
func Load(args []string) (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	return Parse(args)
}

// LoadEnvFile は指定された .env ファイルを環境変数に読み込みます。既に設定されている変数は上書きしません。
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Parse は引数と環境変数から設定を生成して検証します。
func Parse(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsHelp はエラーが --help の要求によるものか判定します。
func IsHelp(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp
}

// Validate は設定値の組み合わせを検証します。
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageFile, StorageDB:
	default:
		return fmt.Errorf("unknown storage %q: must be %q or %q", c.Storage, StorageFile, StorageDB)
	}
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q: must be \"sqlite3\" or \"postgres\"", c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Addr はサーバーの待ち受けアドレスを返します。
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Level はログレベルを返します。不正な値の場合はInfoになります。
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
