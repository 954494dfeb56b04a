// internal/storage/sqlitestore.go
//
// SQLite 快照：與 JSON 串流相同的「筆數 + 逐筆紀錄」邏輯格式，
// 但落地於單一 SQLite 檔案（modernc.org/sqlite，純 Go 無 cgo）。
// 每次 Save 在單一交易內整批取代，Load 依 seq 順序讀回。
package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const sqliteStorage = "sqlite"

//go:embed schema.sql
var schemaSQL string

// SQLiteStore 將快照保存於 SQLite 檔案。
type SQLiteStore struct {
	path string
}

// NewSQLiteStore 建立指向 path 的 SQLite 快照儲存；檔案於第一次 Save 時建立。
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Path 回傳資料庫檔路徑。
func (s *SQLiteStore) Path() string { return s.path }

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	if strings.TrimSpace(s.path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(s.path) + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// Load 讀取快照。檔案不存在時回傳 ErrNoSnapshot（不會建立檔案）；
// 任一列解析失敗即停止，回傳之前已讀到的紀錄與錯誤。
func (s *SQLiteStore) Load() (Snapshot, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	db, err := s.open()
	if err != nil {
		return Snapshot{}, err
	}
	defer db.Close()

	var snap Snapshot
	var savedAt int64
	err = db.QueryRow(`SELECT storage, saved_at, count FROM snapshot_meta WHERE id = 1`).
		Scan(&snap.Meta.Storage, &savedAt, &snap.Count)
	if err != nil {
		return snap, fmt.Errorf("read snapshot meta: %w", err)
	}
	snap.Meta.Timestamp = fromMillis(savedAt)
	if snap.Count < 0 {
		return snap, fmt.Errorf("read snapshot meta: negative count %d", snap.Count)
	}

	rows, err := db.Query(`SELECT name, type, balance, state FROM accounts ORDER BY seq LIMIT ?`, snap.Count)
	if err != nil {
		return snap, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pa      PersistAccount
			balance string
		)
		if err := rows.Scan(&pa.Name, &pa.Type, &balance, &pa.State); err != nil {
			return snap, fmt.Errorf("scan record %d: %w", len(snap.Accounts)+1, err)
		}
		pa.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return snap, fmt.Errorf("record %q balance: %w", pa.Name, err)
		}
		snap.Accounts = append(snap.Accounts, pa)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate accounts: %w", err)
	}
	if len(snap.Accounts) < snap.Count {
		return snap, fmt.Errorf("%w: read %d of %d records", ErrTruncated, len(snap.Accounts), snap.Count)
	}
	return snap, nil
}

// Save 於單一交易內以 snap 取代所有既有紀錄。
func (s *SQLiteStore) Save(snap Snapshot) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO snapshot_meta (id, storage, saved_at, count) VALUES (1, ?, ?, ?)`,
		sqliteStorage, toMillis(time.Now()), len(snap.Accounts),
	)
	if err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO accounts (seq, name, type, balance, state) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, pa := range snap.Accounts {
		if _, err := stmt.Exec(i, pa.Name, pa.Type, pa.Balance.String(), pa.State); err != nil {
			return fmt.Errorf("insert record %q: %w", pa.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
