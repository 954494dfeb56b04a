// internal/storage/model.go
//
// 定義「資料持久化層 (storage layer)」的結構模型。
// 快照的邏輯格式為「筆數 + 逐筆帳戶紀錄」，JSON 與 SQLite 兩種後端共用同一份模型，
// 讓 bank 層不需要知道實際落地的位元組格式。
package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meta 為快照的中繼資料，記錄儲存方式與寫入時間。
type Meta struct {
	Storage   string    `json:"storage"`        // 儲存類型，例如 "json_stream"、"sqlite"
	Timestamp time.Time `json:"timestamp"`      // 快照寫入時間
	Note      string    `json:"note,omitempty"` // 備註欄，可選
}

// PersistAccount 為帳戶在儲存層的序列化格式。
// Type 與 State 以字串保存，由 bank 層負責解析與驗證。
type PersistAccount struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
	State   string          `json:"state"`
}

// Snapshot 為帳戶集合的完整快照。
// Count 為檔案開頭宣告的筆數；Load 失敗時 Accounts 可能少於 Count。
type Snapshot struct {
	Meta     Meta
	Count    int
	Accounts []PersistAccount
}
