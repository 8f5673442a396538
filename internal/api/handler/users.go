package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type profileUpdate struct {
	Nickname     *string `json:"nickname" binding:"omitempty,min=1,max=100"`
	ProfileImage *string `json:"profile_image" binding:"omitempty,max=500"`
}

type guideApplication struct {
	Bio string `json:"bio" binding:"max=2000"`
}

func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileUpdate
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.Auth.UpdateProfile(c.Request.Context(), currentUser(c).ID, req.Nickname, req.ProfileImage)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ApplyGuide serves both /users/apply-guide and /matching/guides/apply.
func (h *Handler) ApplyGuide(c *gin.Context) {
	var req guideApplication
	if !h.bindJSON(c, &req) {
		return
	}
	g, err := h.Matching.ApplyGuide(c.Request.Context(), currentUser(c).ID, req.Bio)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) GuideStatus(c *gin.Context) {
	st, err := h.Matching.Status(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// UserGuide returns the guide record of a user, or null when the user is
// not a guide.
func (h *Handler) UserGuide(c *gin.Context) {
	g, err := h.Matching.GuideOfUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if g == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) GetGuide(c *gin.Context) {
	g, err := h.Matching.GetGuide(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) LikedStories(c *gin.Context) {
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	list, err := h.Stories.Liked(c.Request.Context(), currentUser(c).ID, q.Page, q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) UserStories(c *gin.Context) {
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	list, err := h.Stories.Authored(c.Request.Context(), currentUser(c).ID, q.Page, q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
