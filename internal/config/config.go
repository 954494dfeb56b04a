// internal/config/config.go
//
// Package config 從環境變數（BANK_*）載入行程設定。
// Load 解析後立即呼叫 Validate；設定不合法時 main 會在啟動階段直接結束。
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// BANK_STORE 可接受的儲存種類。
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Config 為 cmd/server 組裝 Registry、Store 與 HTTP 服務所需的全部設定。
type Config struct {
	DataFile  string `env:"BANK_DATA_FILE" envDefault:"accounts.json"`
	Store     string `env:"BANK_STORE" envDefault:"json"`
	HTTPAddr  string `env:"BANK_HTTP_ADDR" envDefault:":8080"`
	Autosave  bool   `env:"BANK_AUTOSAVE" envDefault:"false"`
	LogLevel  string `env:"BANK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BANK_LOG_FORMAT" envDefault:"text"`
}

// Load 解析環境變數並驗證結果。
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 拒絕後續流程無法處理的值（空檔名、未知儲存種類、未知 log 格式）。
func (c Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("BANK_DATA_FILE is required")
	}
	switch c.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("BANK_STORE must be %q or %q, got %q", StoreJSON, StoreSQLite, c.Store)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("BANK_LOG_FORMAT must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	return nil
}
