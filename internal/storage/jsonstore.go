// internal/storage/jsonstore.go
//
// JSON 串流快照：檔案開頭為一個 header 物件（含筆數），之後每行一筆帳戶 JSON。
// 讀取時逐筆解碼，檔案尾端損壞時仍可取回損壞前已解析的紀錄。
// 寫入採「原子寫入」：先寫同目錄的暫存檔，再以 rename() 取代原檔。
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const jsonStorage = "json_stream"

// header 為串流中的第一個 JSON 值。
type header struct {
	Meta  Meta `json:"_meta"`
	Count int  `json:"count"`
}

// JSONStore 將快照保存於單一 JSON 串流檔。
type JSONStore struct {
	path string
}

// NewJSONStore 建立指向 path 的 JSON 快照儲存；建立時不會觸碰檔案系統。
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path 回傳快照檔路徑。
func (s *JSONStore) Path() string { return s.path }

// Load 讀取快照。檔案不存在時回傳 ErrNoSnapshot；
// 解碼途中失敗時，回傳已成功解碼的紀錄與錯誤。
func (s *JSONStore) Load() (Snapshot, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	return decodeSnapshot(f)
}

func decodeSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)

	var h header
	if err := dec.Decode(&h); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if h.Count < 0 {
		return snap, fmt.Errorf("decode header: negative count %d", h.Count)
	}
	snap.Meta = h.Meta
	snap.Count = h.Count

	for i := 0; i < h.Count; i++ {
		var pa PersistAccount
		if err := dec.Decode(&pa); err != nil {
			if errors.Is(err, io.EOF) {
				return snap, fmt.Errorf("%w: read %d of %d records", ErrTruncated, i, h.Count)
			}
			return snap, fmt.Errorf("decode record %d of %d: %w", i+1, h.Count, err)
		}
		snap.Accounts = append(snap.Accounts, pa)
	}
	return snap, nil
}

// Save 以原子方式覆寫快照檔。Count 一律以 Accounts 的實際長度為準。
// 每次寫入使用同目錄下獨立的暫存檔，任何失敗路徑都會清掉暫存檔。
func (s *JSONStore) Save(snap Snapshot) error {
	snap.Meta.Storage = jsonStorage
	snap.Meta.Timestamp = time.Now()
	snap.Count = len(snap.Accounts)

	f, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := encodeSnapshot(f, snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	// 原子替換
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func encodeSnapshot(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(header{Meta: snap.Meta, Count: snap.Count}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, pa := range snap.Accounts {
		if err := enc.Encode(pa); err != nil {
			return fmt.Errorf("encode record %q: %w", pa.Name, err)
		}
	}
	return nil
}
