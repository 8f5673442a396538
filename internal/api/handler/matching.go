package handler

import (
	"net/http"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/config"
	"storybook/backend/internal/localization"
	"storybook/backend/internal/matching"
	"storybook/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type createRequestBody struct {
	GuideID       string  `json:"guide_id" binding:"required"`
	StoryID       *string `json:"story_id"`
	MatchingType  string  `json:"matching_type" binding:"required,oneof=guide_tour online_chat home_visit"`
	RequestedDate string  `json:"requested_date" binding:"required,datetime=2006-01-02"`
	RequestedTime *string `json:"requested_time" binding:"omitempty,max=8"`
	Message       *string `json:"message" binding:"omitempty,max=2000"`
}

type transitionBody struct {
	Status string `json:"status" binding:"required,oneof=pending accepted rejected completed cancelled"`
}

type listRequestsQuery struct {
	pageQuery
	Status  string `form:"status" binding:"omitempty,oneof=pending accepted rejected completed cancelled"`
	AsGuide bool   `form:"as_guide"`
}

type messagesQuery struct {
	Limit  int `form:"limit,default=50" binding:"min=1,max=200"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

type sendMessageBody struct {
	Message string `json:"message" binding:"required,max=5000"`
}

func (h *Handler) CreateMatchingRequest(c *gin.Context) {
	var req createRequestBody
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.Matching.CreateRequest(c.Request.Context(), currentUser(c).ID, matching.CreateInput{
		GuideID:       req.GuideID,
		StoryID:       req.StoryID,
		MatchingType:  models.MatchingType(req.MatchingType),
		RequestedDate: req.RequestedDate,
		RequestedTime: req.RequestedTime,
		Message:       req.Message,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matching_request": view, "chat_room_id": nil})
}

func (h *Handler) ListMatchingRequests(c *gin.Context) {
	var q listRequestsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	in := matching.ListInput{AsGuide: q.AsGuide, Page: q.Page, Limit: q.Limit}
	if q.Status != "" {
		st := models.MatchingStatus(q.Status)
		in.Status = &st
	}
	res, err := h.Matching.List(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateMatchingRequest(c *gin.Context) {
	var req transitionBody
	if !h.bindJSON(c, &req) {
		return
	}
	to := models.MatchingStatus(req.Status)
	if !to.Valid() {
		h.respondError(c, apperr.Validation("Invalid status", map[string]string{"status": "oneof"}))
		return
	}
	view, err := h.Matching.Transition(c.Request.Context(), c.Param("id"), currentUser(c).ID, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matching_request": view, "chat_room_id": view.ChatRoomID})
}

func (h *Handler) DeleteMatchingRequest(c *gin.Context) {
	if err := h.Matching.Delete(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, localization.MatchingRequestDeleted)})
}

func (h *Handler) ListChatRooms(c *gin.Context) {
	rooms, err := h.Chat.ListRooms(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) GetChatRoom(c *gin.Context) {
	room, err := h.Chat.GetRoom(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	q := messagesQuery{Limit: config.DefaultMessageLimit}
	if !h.bindQuery(c, &q) {
		return
	}
	list, err := h.Chat.ListMessages(c.Request.Context(), c.Param("id"), currentUser(c).ID, q.Limit, q.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendMessageBody
	if !h.bindJSON(c, &req) {
		return
	}
	msg, err := h.Chat.SendMessage(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
