package handler

import (
	"net/http"

	"storybook/backend/internal/localization"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"
	"storybook/backend/internal/story"

	"github.com/gin-gonic/gin"
)

type listStoriesQuery struct {
	pageQuery
	RegionCategory string `form:"region_category"`
	City           string `form:"city"`
	Sort           string `form:"sort,default=latest" binding:"oneof=latest popular"`
}

type myStoriesQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

type createStoryBody struct {
	Title        string  `json:"title" binding:"required,max=255"`
	Content      *string `json:"content"`
	MediaType    string  `json:"media_type" binding:"required,oneof=video image pdf audio"`
	MediaURL     string  `json:"media_url" binding:"required,max=500"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,max=500"`
	Category     *string `json:"category" binding:"omitempty,max=50"`
	RegionID1    *string `json:"region_id1" binding:"omitempty,max=50"`
	RegionID2    *string `json:"region_id2" binding:"omitempty,max=50"`
}

type commentBody struct {
	Content  string  `json:"content" binding:"required,max=2000"`
	ParentID *string `json:"parent_id"`
}

type reportBody struct {
	Reason      string  `json:"reason" binding:"required,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

func (h *Handler) ListStories(c *gin.Context) {
	var q listStoriesQuery
	if !h.bindQuery(c, &q) {
		return
	}
	list, err := h.Stories.List(c.Request.Context(), viewerID(c), story.ListInput{
		RegionCategory: q.RegionCategory,
		City:           q.City,
		Sort:           storage.StorySort(q.Sort),
		Page:           q.Page,
		Limit:          q.Limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateStory(c *gin.Context) {
	var req createStoryBody
	if !h.bindJSON(c, &req) {
		return
	}
	v, err := h.Stories.Create(c.Request.Context(), currentUser(c).ID, story.CreateInput{
		Title:        req.Title,
		Content:      req.Content,
		MediaType:    models.MediaType(req.MediaType),
		MediaURL:     req.MediaURL,
		ThumbnailURL: req.ThumbnailURL,
		Category:     req.Category,
		RegionID1:    req.RegionID1,
		RegionID2:    req.RegionID2,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) GetStory(c *gin.Context) {
	v, err := h.Stories.Get(c.Request.Context(), c.Param("id"), viewerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) CountStoryView(c *gin.Context) {
	count, err := h.Stories.CountView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "view_count": count})
}

func (h *Handler) ToggleLike(c *gin.Context) {
	res, err := h.Stories.ToggleLike(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ToggleBookmark(c *gin.Context) {
	on, err := h.Stories.ToggleBookmark(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	key := localization.BookmarkRemoved
	if on {
		key = localization.BookmarkAdded
	}
	c.JSON(http.StatusOK, gin.H{"is_bookmarked": on, "message": h.message(c, key)})
}

func (h *Handler) Bookmarks(c *gin.Context) {
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	list, err := h.Stories.Bookmarks(c.Request.Context(), currentUser(c).ID, q.Page, q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) MyStories(c *gin.Context) {
	var q myStoriesQuery
	if !h.bindQuery(c, &q) {
		return
	}
	views, total, err := h.Stories.Mine(c.Request.Context(), currentUser(c).ID, q.Skip, q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": views, "total": total})
}

func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.Stories.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) CreateComment(c *gin.Context) {
	var req commentBody
	if !h.bindJSON(c, &req) {
		return
	}
	v, err := h.Stories.AddComment(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Content, req.ParentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteStory(c *gin.Context) {
	if err := h.Stories.Delete(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, localization.StoryDeleted)})
}

func (h *Handler) ReportStory(c *gin.Context) {
	var req reportBody
	if !h.bindJSON(c, &req) {
		return
	}
	if _, err := h.Reports.Submit(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Reason, req.Description); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": h.message(c, localization.ReportSubmitted)})
}
