// cmd/server/main.go

// 本服務提供帳戶開戶、結清、查詢與快照存檔的 RESTful API。
// 此檔案負責讀取設定、初始化模組（config, storage, bank, server），並啟動 HTTP 伺服器；
// 啟動時由 Registry 自行載入快照，收到結束訊號時再保存一次。

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banking/internal/bank"
	"banking/internal/config"
	"banking/internal/server"
	"banking/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.Logger(os.Stderr)

	// 初始化帳戶登錄表；快照不存在或損壞時以空（或部分）集合啟動
	reg := bank.NewRegistry(openStore(cfg), logger)

	// 自動存檔為選配；未開啟時只在 POST /save 與結束時寫檔
	var persist func() error
	if cfg.Autosave {
		persist = reg.Save
	}
	s := server.NewServer(reg, persist, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 背景監聽 SIGINT/SIGTERM：先停止收請求，再保存狀態
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("http shutdown", "err", err)
		}
	}()

	logger.Info("bank server running", "addr", cfg.HTTPAddr, "store", cfg.Store, "path", cfg.DataFile)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server: %v", err)
	}
	if err := reg.Save(); err != nil {
		logger.Error("final save failed", "err", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config) bank.Store {
	if cfg.Store == config.StoreSQLite {
		return storage.NewSQLiteStore(cfg.DataFile)
	}
	return storage.NewJSONStore(cfg.DataFile)
}
