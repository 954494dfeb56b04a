// internal/server/validation.go
//
// 請求結構的欄位驗證（validator struct tag）。
// 驗證失敗時攤平成 []validationError，由 handler 以 400 回傳給呼叫端。
package server

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationError 為單一欄位的驗證失敗說明。
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// validateRequest 執行 struct tag 驗證並攤平結果；obj 合法時回傳 nil。
func validateRequest(obj any) []validationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []validationError{{Message: err.Error(), Type: "invalid"}}
	}
	out := make([]validationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, validationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

// errorMessage 將驗證標籤轉為對外訊息。
func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	default:
		return "Invalid value"
	}
}
