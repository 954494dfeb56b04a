// internal/bank/account.go
//
// Package bank 定義核心領域模型與業務規則。
// 本檔定義 Account 值型別（支票/儲蓄帳戶與開戶/結清狀態），不含任何 HTTP 或儲存細節。

package bank

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountType 為帳戶種類；比對區分大小寫。
type AccountType string

const (
	Checking AccountType = "Checking"
	Savings  AccountType = "Savings"
)

// State 為帳戶生命週期狀態。
type State string

const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
)

// Account represents a bank account. Name is its identity and never changes.
type Account struct {
	Name    string          `json:"name"`
	Type    AccountType     `json:"type"`
	Balance decimal.Decimal `json:"balance"`
	State   State           `json:"state"`
}

// NewChecking 建立狀態為 OPEN 的支票帳戶。
func NewChecking(name string, balance decimal.Decimal) *Account {
	return &Account{Name: name, Type: Checking, Balance: balance, State: StateOpen}
}

// NewSavings 建立狀態為 OPEN 的儲蓄帳戶。
func NewSavings(name string, balance decimal.Decimal) *Account {
	return &Account{Name: name, Type: Savings, Balance: balance, State: StateOpen}
}

// Closed reports whether the account has been closed.
func (a Account) Closed() bool { return a.State == StateClosed }

func parseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case Checking, Savings:
		return t, nil
	}
	return "", fmt.Errorf("%w: bad account type: %q", ErrInvalidArgument, s)
}

func parseState(s string) (State, error) {
	switch st := State(s); st {
	case StateOpen, StateClosed:
		return st, nil
	}
	return "", fmt.Errorf("%w: bad account state: %q", ErrInvalidArgument, s)
}
