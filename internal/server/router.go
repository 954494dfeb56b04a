// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊。
// 與 handler.go 分離：handler.go 定義「如何處理請求」，router.go 定義「請求如何被導向」，
// main.go 組裝整體應用（注入 Registry、Store、Persist Hook）。
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router 建立並回傳整個 HTTP 處理鏈。
// 同一組端點同時掛在根路徑與 /api/v1 之下。
func (s *Server) Router() http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestLogger(s.log))

	s.routes(&r.RouterGroup)
	s.routes(r.Group("/api/v1"))
	return r
}

// routes 註冊：
//
//	GET  /health
//	POST /accounts               → 建立帳戶
//	GET  /accounts[?active=true] → 列出帳戶
//	GET  /accounts/:name         → 查詢帳戶
//	POST /accounts/:name/close   → 結清帳戶
//	POST /save                   → 寫入快照
func (s *Server) routes(g *gin.RouterGroup) {
	g.GET("/health", s.health)

	accounts := g.Group("/accounts")
	accounts.POST("", s.createAccount)
	accounts.GET("", s.listAccounts)
	accounts.GET("/:name", s.getAccount)
	accounts.POST("/:name/close", s.closeAccount)

	g.POST("/save", s.saveAccounts)
}
