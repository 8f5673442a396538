package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storybook/backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Code  int         `json:"code"`
	Msg   string      `json:"msg"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := errorBody{Code: status, Msg: "Internal server error"}

	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		body.Msg = ae.Msg
		if len(ae.Fields) > 0 {
			body.Data = gin.H{"fields": ae.Fields}
		}
		if ae.Err != nil && gin.Mode() != gin.ReleaseMode {
			body.Error = ae.Err.Error()
		}
	} else if gin.Mode() != gin.ReleaseMode {
		body.Error = err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError turns a gin binding failure into a validation error with one
// entry per offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return apperr.Validation("Validation failed", fields)
	}

	var numErr *strconv.NumError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return apperr.Validation("Validation failed", map[string]string{typeErr.Field: "type"})
	case errors.As(err, &numErr):
		return apperr.Validation("Invalid query parameter", nil)
	}
	return apperr.Wrap(apperr.KindValidation, "Invalid request body", err)
}

func (h *Handler) bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.respondError(c, bindError(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.respondError(c, bindError(err))
		return false
	}
	return true
}

// pageQuery is the page/limit pair shared by the paginated lists.
type pageQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

func (h *Handler) lang(c *gin.Context) string {
	return h.Localizer.LanguageFromHeader(c.GetHeader("Accept-Language"))
}

func (h *Handler) message(c *gin.Context, key string) string {
	return h.Localizer.GetString(h.lang(c), key)
}
