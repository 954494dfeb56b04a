// internal/bank/registry_test.go
//
// 本檔為 Registry 的單元與整合測試。
// 覆蓋：開戶驗證、名稱唯一、結清冪等、有效帳戶篩選、快照往返、缺檔與損壞檔啟動。
// 儲存一律使用 t.TempDir()，不依賴外部服務。

package bank

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"banking/internal/storage"

	"github.com/shopspring/decimal"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestRegistry 建立指向暫存目錄 JSON 檔的 Registry。
func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	return NewRegistry(storage.NewJSONStore(path), quietLogger()), path
}

// mustCreate 開戶失敗時立即讓測試失敗。
func mustCreate(t *testing.T, r *Registry, typ, name, balance string) {
	t.Helper()
	ok, err := r.NewAccount(typ, name, dec(balance))
	if err != nil || !ok {
		t.Fatalf("NewAccount(%s, %s, %s) ok=%v err=%v", typ, name, balance, ok, err)
	}
}

func TestNewAccountAndGet(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, "Checking", "A", "1000")
	mustCreate(t, r, "Savings", "B", "0")

	a, ok := r.Account("A")
	if !ok {
		t.Fatal("account A not found")
	}
	if a.Type != Checking || a.State != StateOpen || !a.Balance.Equal(dec("1000")) {
		t.Fatalf("got=%+v", a)
	}
	b, _ := r.Account("B")
	if b.Type != Savings || b.State != StateOpen {
		t.Fatalf("got=%+v", b)
	}
	if _, ok := r.Account("nobody"); ok {
		t.Fatal("unknown account should not be found")
	}
}

// TestNewAccountDuplicate 重複名稱（含已結清帳戶）回傳 false 且數量不變。
func TestNewAccountDuplicate(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, "Checking", "A", "10")

	ok, err := r.NewAccount("Savings", "A", dec("99"))
	if err != nil || ok {
		t.Fatalf("duplicate: ok=%v err=%v", ok, err)
	}
	r.CloseAccount("A")
	ok, err = r.NewAccount("Checking", "A", dec("1"))
	if err != nil || ok {
		t.Fatalf("duplicate of closed: ok=%v err=%v", ok, err)
	}
	if n := len(r.AllAccounts()); n != 1 {
		t.Fatalf("len=%d want=1", n)
	}
	// 原帳戶內容不受影響
	if a, _ := r.Account("A"); a.Type != Checking || !a.Balance.Equal(dec("10")) {
		t.Fatalf("original account modified: %+v", a)
	}
}

func TestNewAccountInvalidArgument(t *testing.T) {
	r, _ := newTestRegistry(t)
	cases := []struct {
		typ, name, balance string
	}{
		{"Checking", "x", "-1"},
		{"Savings", "x", "-0.01"},
		{"Bogus", "y", "10"},
		{"checking", "z", "10"},
		{"", "w", "0"},
	}
	for _, tc := range cases {
		ok, err := r.NewAccount(tc.typ, tc.name, dec(tc.balance))
		if ok || !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%+v: want ErrInvalidArgument, got ok=%v err=%v", tc, ok, err)
		}
		if _, found := r.Account(tc.name); found {
			t.Fatalf("%+v: account should not be added", tc)
		}
	}
	if n := len(r.AllAccounts()); n != 0 {
		t.Fatalf("len=%d want=0", n)
	}
}

// TestNegativeBalanceCheckedFirst 負餘額優先於重複名稱檢查。
func TestNegativeBalanceCheckedFirst(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, "Checking", "A", "1")
	if _, err := r.NewAccount("Checking", "A", dec("-5")); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestCloseAccountIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, "Savings", "x", "42.5")

	for i := 0; i < 2; i++ {
		if !r.CloseAccount("x") {
			t.Fatalf("close #%d returned false", i+1)
		}
		a, _ := r.Account("x")
		if a.State != StateClosed {
			t.Fatalf("close #%d state=%s", i+1, a.State)
		}
		if !a.Balance.Equal(dec("42.5")) || a.Name != "x" {
			t.Fatalf("close changed identity/balance: %+v", a)
		}
	}
}

func TestCloseUnknownAccount(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, "Checking", "A", "1")
	if r.CloseAccount("nonexistent") {
		t.Fatal("closing unknown account should return false")
	}
	if len(r.AllAccounts()) != 1 || len(r.ActiveAccounts()) != 1 {
		t.Fatal("close of unknown account mutated registry")
	}
}

func TestActiveAccounts(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, "Checking", "A", "1")
	mustCreate(t, r, "Savings", "B", "2")
	r.CloseAccount("B")

	names := func(as []Account) map[string]bool {
		m := make(map[string]bool)
		for _, a := range as {
			m[a.Name] = true
		}
		return m
	}
	active := names(r.ActiveAccounts())
	if !active["A"] || active["B"] || len(active) != 1 {
		t.Fatalf("active=%v", active)
	}
	all := names(r.AllAccounts())
	if !all["A"] || !all["B"] || len(all) != 2 {
		t.Fatalf("all=%v", all)
	}
}

// TestReturnedSlicesAreCopies 修改回傳值不影響內部狀態。
func TestReturnedSlicesAreCopies(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, "Checking", "A", "1")

	all := r.AllAccounts()
	all[0].State = StateClosed
	all[0].Balance = dec("-999")

	a, ok := r.Account("A")
	if !ok || a.State != StateOpen || !a.Balance.Equal(dec("1")) {
		t.Fatalf("registry state leaked: %+v", a)
	}
}

// TestSaveLoadRoundTrip 存檔後以同一路徑建立新的 Registry，內容應完全一致。
func TestSaveLoadRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		store func(dir string) Store
	}{
		{"json", func(dir string) Store { return storage.NewJSONStore(filepath.Join(dir, "accounts.json")) }},
		{"sqlite", func(dir string) Store { return storage.NewSQLiteStore(filepath.Join(dir, "accounts.db")) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			r := NewRegistry(tc.store(dir), quietLogger())
			mustCreate(t, r, "Checking", "alice", "100.10")
			mustCreate(t, r, "Savings", "bob", "0")
			mustCreate(t, r, "Savings", "carol", "12345678.9")
			r.CloseAccount("bob")

			if err := r.Save(); err != nil {
				t.Fatalf("Save err=%v", err)
			}

			r2 := NewRegistry(tc.store(dir), quietLogger())
			before := r.AllAccounts()
			if n := len(r2.AllAccounts()); n != len(before) {
				t.Fatalf("len=%d want=%d", n, len(before))
			}
			for _, want := range before {
				got, ok := r2.Account(want.Name)
				if !ok {
					t.Fatalf("%s missing after reload", want.Name)
				}
				if got.Type != want.Type || got.State != want.State || !got.Balance.Equal(want.Balance) {
					t.Fatalf("%s: got=%+v want=%+v", want.Name, got, want)
				}
			}
			if n := len(r2.ActiveAccounts()); n != 2 {
				t.Fatalf("active after reload=%d want=2", n)
			}
		})
	}
}

// TestSaveIsExplicit 只有 Save 會寫檔。
func TestSaveIsExplicit(t *testing.T) {
	r, path := newTestRegistry(t)
	mustCreate(t, r, "Checking", "A", "1")
	r.CloseAccount("A")
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("snapshot written without Save: %v", err)
	}
}

func TestSaveFailureNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "accounts.json")
	r := NewRegistry(storage.NewJSONStore(path), quietLogger())
	mustCreate(t, r, "Checking", "A", "1")

	err := r.Save()
	var se *SaveError
	if !errors.As(err, &se) {
		t.Fatalf("want *SaveError, got %v", err)
	}
	if se.Path != path || se.Unwrap() == nil {
		t.Fatalf("SaveError=%+v", se)
	}
}

func TestStartupMissingFile(t *testing.T) {
	r, _ := newTestRegistry(t)
	if n := len(r.AllAccounts()); n != 0 {
		t.Fatalf("len=%d want=0", n)
	}
}

// TestStartupCorruptFile 損壞檔不影響啟動，保留損壞前已讀到的帳戶。
func TestStartupCorruptFile(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{"garbage", "\x00\x01 not a snapshot", nil},
		{"empty", "", nil},
		{
			"truncated",
			`{"_meta":{},"count":3}
{"name":"A","type":"Checking","balance":"1","state":"OPEN"}
`,
			[]string{"A"},
		},
		{
			"bad type stops load",
			`{"_meta":{},"count":3}
{"name":"A","type":"Checking","balance":"1","state":"OPEN"}
{"name":"B","type":"Gold","balance":"1","state":"OPEN"}
{"name":"C","type":"Savings","balance":"1","state":"OPEN"}
`,
			[]string{"A"},
		},
		{
			"null record skipped",
			`{"_meta":{},"count":2}
null
{"name":"B","type":"Savings","balance":"3","state":"CLOSED"}
`,
			[]string{"B"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "accounts.json")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			r := NewRegistry(storage.NewJSONStore(path), quietLogger())
			all := r.AllAccounts()
			if len(all) != len(tc.want) {
				t.Fatalf("len=%d want=%d (%+v)", len(all), len(tc.want), all)
			}
			for _, name := range tc.want {
				if _, ok := r.Account(name); !ok {
					t.Fatalf("%s should be loaded", name)
				}
			}
		})
	}
}

// TestConcurrentNewAccountUnique 並行開同名帳戶只有一個成功。
func TestConcurrentNewAccountUnique(t *testing.T) {
	r, _ := newTestRegistry(t)
	const workers = 50

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			ok, err := r.NewAccount("Checking", "same", dec("1"))
			if err != nil {
				t.Errorf("NewAccount err: %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("created=%d want=1", created)
	}
}

// TestConcurrentSaveKeepsLatestState 並行開戶並存檔：每次 Save 都應成功，
// 且重新載入後必須看到全部帳戶（較早的快照不得覆蓋較新的快照）。
func TestConcurrentSaveKeepsLatestState(t *testing.T) {
	r, path := newTestRegistry(t)
	const workers = 200

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := r.NewAccount("Checking", fmt.Sprintf("acct-%d", i), dec("1")); err != nil {
				t.Errorf("NewAccount err: %v", err)
				return
			}
			if err := r.Save(); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				t.Errorf("Save err: %v", err)
			}
		}()
	}
	wg.Wait()
	if failures != 0 {
		t.Fatalf("save failures=%d want=0", failures)
	}

	reloaded := NewRegistry(storage.NewJSONStore(path), quietLogger())
	if n := len(reloaded.AllAccounts()); n != workers {
		t.Fatalf("reloaded=%d want=%d", n, workers)
	}
	left, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(left) != 0 {
		t.Fatalf("tmp files left behind: %v", left)
	}
}
