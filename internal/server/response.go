// internal/server/response.go
//
// 本檔負責統一錯誤回應格式：一般錯誤為 {"message": "..."}，
// 欄位驗證錯誤另附 details 清單。

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type badRequestResponse struct {
	Message string            `json:"message"`
	Details []validationError `json:"details"`
}

// respondError 統一輸出錯誤回應。
func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

func respondValidationError(c *gin.Context, verrs []validationError) {
	c.JSON(http.StatusBadRequest, badRequestResponse{
		Message: "invalid request data",
		Details: verrs,
	})
}
