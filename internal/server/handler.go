// internal/server/handler.go
//
// Package server
// ─────────────────────────────────────────────
// 提供 HTTP RESTful 介面，作為 bank 模組的應用層 (Application Layer)。
// 每個 handler 僅負責：
//  1. 接收與驗證 HTTP 請求
//  2. 呼叫 Registry 執行商業邏輯
//  3. 回傳標準化 JSON 回應
//  4. 若有注入 persist，成功變更狀態後呼叫 s.persist()（自動存檔）
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"banking/internal/bank"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Server 為 HTTP 層核心結構：
// - Registry：注入帳戶登錄表。
// - persist：自動存檔鉤子，nil 代表只在 POST /save 時寫檔。
type Server struct {
	Registry *bank.Registry
	persist  func() error
	log      *slog.Logger
}

// NewServer 建立新的 HTTP 伺服器。persist 與 logger 皆可為 nil。
func NewServer(r *bank.Registry, persist func() error, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Registry: r, persist: persist, log: logger.With("component", "http")}
}

type createAccountRequest struct {
	Type    string           `json:"type" validate:"required"`
	Name    string           `json:"name" validate:"required"`
	Balance *decimal.Decimal `json:"balance" validate:"required"`
}

type listAccountsResponse struct {
	Accounts []bank.Account `json:"accounts"`
}

// createAccount 處理 POST /accounts。
// 種類與負餘額的檢查交給 Registry，這裡只做欄位存在性驗證。
func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if verrs := validateRequest(req); verrs != nil {
		respondValidationError(c, verrs)
		return
	}

	ok, err := s.Registry.NewAccount(req.Type, req.Name, *req.Balance)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, bank.ErrInvalidArgument) {
			code = http.StatusBadRequest
		}
		respondError(c, code, err.Error())
		return
	}
	if !ok {
		respondError(c, http.StatusConflict, "account already exists")
		return
	}

	a, _ := s.Registry.Account(req.Name)
	c.JSON(http.StatusCreated, a)
	s.autosave()
}

// listAccounts 處理 GET /accounts；?active=true 只列出未結清帳戶。
func (s *Server) listAccounts(c *gin.Context) {
	active := false
	if v := c.Query("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "active must be a boolean")
			return
		}
		active = b
	}

	var accts []bank.Account
	if active {
		accts = s.Registry.ActiveAccounts()
	} else {
		accts = s.Registry.AllAccounts()
	}
	c.JSON(http.StatusOK, listAccountsResponse{Accounts: accts})
}

// getAccount 處理 GET /accounts/:name。
func (s *Server) getAccount(c *gin.Context) {
	a, ok := s.Registry.Account(c.Param("name"))
	if !ok {
		respondError(c, http.StatusNotFound, "account not found")
		return
	}
	c.JSON(http.StatusOK, a)
}

// closeAccount 處理 POST /accounts/:name/close；重複結清仍回 200。
func (s *Server) closeAccount(c *gin.Context) {
	name := c.Param("name")
	if !s.Registry.CloseAccount(name) {
		respondError(c, http.StatusNotFound, "account not found")
		return
	}
	a, _ := s.Registry.Account(name)
	c.JSON(http.StatusOK, a)
	s.autosave()
}

// saveAccounts 處理 POST /save：明確寫入快照。
func (s *Server) saveAccounts(c *gin.Context) {
	if err := s.Registry.Save(); err != nil {
		var se *bank.SaveError
		if errors.As(err, &se) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "could not write accounts",
				"path":    se.Path,
			})
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// autosave 於回應送出後觸發 persist；失敗只記錄，不影響已完成的請求。
func (s *Server) autosave() {
	if s.persist == nil {
		return
	}
	if err := s.persist(); err != nil {
		s.log.Error("autosave failed", "err", err)
	}
}
