package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type regionNameQuery struct {
	City     string `form:"city" binding:"required"`
	District string `form:"district"`
}

func (h *Handler) ListRegions(c *gin.Context) {
	list, err := h.Regions.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) RegionMap(c *gin.Context) {
	entries, err := h.Regions.Map(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) SearchRegionsByName(c *gin.Context) {
	var q regionNameQuery
	if !h.bindQuery(c, &q) {
		return
	}
	regions, err := h.Regions.SearchByName(c.Request.Context(), q.City, q.District)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, regions)
}

func (h *Handler) GetRegion(c *gin.Context) {
	r, err := h.Regions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
