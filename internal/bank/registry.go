// internal/bank/registry.go

// Package bank 定義核心商業邏輯：帳戶建立、結清、查詢與快照的存取。
// Registry 以帳戶名稱為鍵持有所有帳戶；帳戶建立後不會被移除，結清只改變狀態。
// 持久化為明確操作：只有 Save 會寫入儲存，其餘操作皆只改動記憶體。
package bank

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"banking/internal/storage"

	"github.com/shopspring/decimal"
)

// Store 為快照儲存後端（JSON 串流檔或 SQLite 檔）。
type Store interface {
	Path() string
	Load() (storage.Snapshot, error)
	Save(storage.Snapshot) error
}

// Registry 為聚合根 (Aggregate Root)：管理全系統帳戶。
// - mu：序列化所有讀寫；HTTP 層會並行呼叫。
// - saveMu：序列化 Save；快照與寫檔在同一臨界區內完成，較晚開始的 Save 一定較晚落地。
// - accts：帳戶索引表（name → *Account），內部指標只在臨界區內修改，對外一律回傳拷貝。
type Registry struct {
	mu     sync.Mutex
	saveMu sync.Mutex
	store  Store
	log    *slog.Logger
	accts  map[string]*Account
}

// NewRegistry 建立 Registry 並嘗試從 store 載入上次的快照。
// 快照不存在時以空集合啟動；載入失敗只記錄 log，保留失敗前已載入的帳戶。
// logger 可為 nil（使用 slog.Default()）。
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		store: store,
		log:   logger.With("component", "registry", "path", store.Path()),
		accts: make(map[string]*Account),
	}
	r.load()
	return r
}

func (r *Registry) load() {
	snap, err := r.store.Load()
	if errors.Is(err, storage.ErrNoSnapshot) {
		r.log.Info("no snapshot found, starting empty")
		return
	}

	// 先收下已成功解碼的紀錄；遇到無法轉換的紀錄即停止
	for _, pa := range snap.Accounts {
		if pa.Name == "" {
			continue
		}
		a, cerr := fromPersist(pa)
		if cerr != nil {
			r.log.Error("snapshot load stopped", "loaded", len(r.accts), "err", cerr)
			return
		}
		r.accts[a.Name] = a
	}
	if err != nil {
		r.log.Error("snapshot load stopped", "loaded", len(r.accts), "err", err)
		return
	}
	r.log.Info("snapshot loaded", "accounts", len(r.accts))
}

// NewAccount 以種類、名稱與初始餘額建立帳戶。
//   - 初始餘額為負或種類不是 Checking/Savings → ErrInvalidArgument，不改變狀態。
//   - 名稱已存在（不論是否已結清）→ false, nil。
func (r *Registry) NewAccount(typ, name string, balance decimal.Decimal) (bool, error) {
	if balance.IsNegative() {
		return false, fmt.Errorf("%w: new account may not be started with a negative balance: %s", ErrInvalidArgument, balance)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accts[name]; ok {
		return false, nil
	}
	t, err := parseAccountType(typ)
	if err != nil {
		return false, err
	}

	var a *Account
	switch t {
	case Checking:
		a = NewChecking(name, balance)
	case Savings:
		a = NewSavings(name, balance)
	}
	r.accts[name] = a
	r.log.Debug("account created", "name", name, "type", t)
	return true, nil
}

// CloseAccount 將帳戶狀態設為 CLOSED；重複結清仍回傳 true。查無帳戶回傳 false。
func (r *Registry) CloseAccount(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accts[name]
	if !ok {
		return false
	}
	a.State = StateClosed
	return true
}

// Account 依名稱取得帳戶的值拷貝；已結清的帳戶同樣可查到。
func (r *Registry) Account(name string) (Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accts[name]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// AllAccounts 回傳所有帳戶（含已結清）的拷貝，順序不保證。
func (r *Registry) AllAccounts() []Account {
	return r.collect(func(Account) bool { return true })
}

// ActiveAccounts 回傳所有未結清帳戶的拷貝，順序不保證。
func (r *Registry) ActiveAccounts() []Account {
	return r.collect(func(a Account) bool { return !a.Closed() })
}

func (r *Registry) collect(keep func(Account) bool) []Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Account, 0, len(r.accts))
	for _, a := range r.accts {
		if keep(*a) {
			out = append(out, *a)
		}
	}
	return out
}

// Save 將目前所有帳戶整批覆寫到 store。失敗時回傳 *SaveError。
func (r *Registry) Save() error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	snap := r.snapshot()
	if err := r.store.Save(snap); err != nil {
		r.log.Error("snapshot save failed", "err", err)
		return &SaveError{Path: r.store.Path(), Err: err}
	}
	r.log.Info("snapshot saved", "accounts", snap.Count)
	return nil
}

// snapshot 走訪 map 的值建立快照；依名稱排序讓輸出檔內容穩定。
func (r *Registry) snapshot() storage.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := storage.Snapshot{Count: len(r.accts)}
	for _, a := range r.accts {
		s.Accounts = append(s.Accounts, storage.PersistAccount{
			Name: a.Name, Type: string(a.Type), Balance: a.Balance, State: string(a.State),
		})
	}
	sort.Slice(s.Accounts, func(i, j int) bool { return s.Accounts[i].Name < s.Accounts[j].Name })
	return s
}

func fromPersist(pa storage.PersistAccount) (*Account, error) {
	t, err := parseAccountType(pa.Type)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", pa.Name, err)
	}
	st, err := parseState(pa.State)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", pa.Name, err)
	}
	return &Account{Name: pa.Name, Type: t, Balance: pa.Balance, State: st}, nil
}
