// internal/storage/errors.go

package storage

import "errors"

var (
	// ErrNoSnapshot 代表儲存位置不存在（首次啟動），不屬於錯誤狀態。
	ErrNoSnapshot = errors.New("snapshot does not exist")

	// ErrTruncated 代表實際讀到的紀錄少於開頭宣告的筆數。
	ErrTruncated = errors.New("snapshot truncated")
)
