// Package api assembles the gin engine: middleware, routes and static files.
package api

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"storybook/backend/internal/api/handler"
	"storybook/backend/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var tagNameOnce sync.Once

// useJSONFieldNames makes validation errors name fields by their json or
// form tag instead of the Go field name.
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
}

func NewRouter(h *handler.Handler, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handler.RequestLogger(logger))
	r.Use(corsMiddleware(cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Media.Backend != "s3" && strings.HasPrefix(cfg.Media.PublicBase, "/") {
		r.Static(cfg.Media.PublicBase, cfg.Media.Dir)
	}

	r.GET("/ws/chat", h.ServeWebSocket)

	v1 := r.Group("/api/v1")
	authed := h.RequireAuth()
	optional := h.OptionalAuth()

	a := v1.Group("/auth")
	a.POST("/kakao/login", h.KakaoLogin)
	a.POST("/refresh", h.RefreshToken)
	a.POST("/logout", h.Logout)

	u := v1.Group("/users", authed)
	u.GET("/profile", h.GetProfile)
	u.PATCH("/profile", h.UpdateProfile)
	u.POST("/apply-guide", h.ApplyGuide)
	u.GET("/guide-status", h.GuideStatus)
	u.GET("/liked-stories", h.LikedStories)
	u.GET("/my-stories", h.UserStories)
	u.GET("/:id/guide", h.UserGuide)

	m := v1.Group("/matching", authed)
	m.POST("/guides/apply", h.ApplyGuide)
	m.GET("/guides/:id", h.GetGuide)
	m.POST("/requests", h.CreateMatchingRequest)
	m.GET("/requests", h.ListMatchingRequests)
	m.PATCH("/requests/:id", h.UpdateMatchingRequest)
	m.DELETE("/requests/:id", h.DeleteMatchingRequest)
	m.GET("/chat-rooms", h.ListChatRooms)
	m.GET("/chat-rooms/:id", h.GetChatRoom)
	m.GET("/chat-rooms/:id/messages", h.ListChatMessages)
	m.POST("/chat-rooms/:id/messages", h.SendChatMessage)

	s := v1.Group("/stories")
	s.GET("", optional, h.ListStories)
	s.POST("", authed, h.CreateStory)
	s.GET("/my", authed, h.MyStories)
	s.GET("/bookmarks/me", authed, h.Bookmarks)
	s.POST("/upload/", authed, h.UploadMedia)
	s.GET("/:id", optional, h.GetStory)
	s.DELETE("/:id", authed, h.DeleteStory)
	s.POST("/:id/view", h.CountStoryView)
	s.POST("/:id/like", authed, h.ToggleLike)
	s.POST("/:id/bookmark", authed, h.ToggleBookmark)
	s.GET("/:id/comments", h.ListComments)
	s.POST("/:id/comments", authed, h.CreateComment)
	s.POST("/:id/report", authed, h.ReportStory)

	g := v1.Group("/regions")
	g.GET("", h.ListRegions)
	g.GET("/map", h.RegionMap)
	g.GET("/search-by-name", h.SearchRegionsByName)
	g.GET("/:id", h.GetRegion)

	return r
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "Accept-Language", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.Origins) == 0 || (len(cfg.Origins) == 1 && cfg.Origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.Origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
