package handler

import (
	"net/http"

	"storybook/backend/internal/localization"

	"github.com/gin-gonic/gin"
)

type kakaoLoginRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// KakaoLogin exchanges a Kakao access token for our token pair.
func (h *Handler) KakaoLogin(c *gin.Context) {
	var req kakaoLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.KakaoLogin(c.Request.Context(), req.AccessToken)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Logout(c *gin.Context) {
	var req refreshRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.Auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, localization.LoggedOut)})
}
