// Package bind はgin のバインディングエラーを共通のエラーレスポンスに変換します。
package bind

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"mindcare_backend/internal/api"
)

// MessageValidationFailed は 422 レスポンスの固定メッセージです。
const MessageValidationFailed = "Validation failed"

// Classify はバインディングエラーを分類します。
// required 違反を含む場合は missing=true、それ以外の検証違反はフィールド一覧を返します。
// JSON 自体が壊れている場合は validator.ValidationErrors ではないため missing=true として扱います。
func Classify(err error) (missing bool, fields []api.FieldError) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return true, nil
	}
	for _, fe := range ve {
		if fe.Tag() == "required" {
			return true, nil
		}
		fields = append(fields, api.FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return false, fields
}

// AbortWithError はバインディングエラーに応じて 400 または 422 を返します。
// missingMessage は必須項目の欠落や不正なJSONの場合に返すメッセージです。
func AbortWithError(c *gin.Context, err error, missingMessage string) {
	missing, fields := Classify(err)
	if missing {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Message: missingMessage})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.ValidationErrorResponse{
		Message: MessageValidationFailed,
		Errors:  fields,
	})
}
