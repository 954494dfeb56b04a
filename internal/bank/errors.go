// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 上層 HTTP handler 以 errors.Is / errors.As 判斷錯誤類別並轉換成對應的 HTTP 狀態碼。
// 注意：重複開戶與查無帳戶屬於正常結果（以 bool 回傳），不在此定義。

package bank

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument 代表參數非法（初始餘額為負、未知的帳戶種類）。
// 一律在任何狀態變更之前回傳；對應 HTTP 400 Bad Request。
var ErrInvalidArgument = errors.New("invalid argument")

// SaveError 代表快照寫入失敗，Path 為目標檔案。
// 對應 HTTP 500；載入失敗則不會產生此錯誤（僅記錄 log）。
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("could not write file %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
