package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/controller"
	"github.com/saxenaaman628/badenya/internal/logging"
	"github.com/saxenaaman628/badenya/internal/middleware"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth      *AuthHandler
	Groups    *controller.GroupHandler
	Proposals *controller.ProposalHandler
	Ledger    *controller.LedgerHandler
	Store     Pinger
}

type RouteConfig struct {
	JWTSecret   []byte
	CORSOrigins []string
	VoteLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

func RegisterRoutes(r *gin.Engine, cfg RouteConfig, h Handlers) {
	r.Use(logging.GinLogger(cfg.Logger), gin.Recovery())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", health(h.Store))
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	auth := r.Group("/api")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		auth.POST("/groups", h.Groups.Create)
		auth.GET("/groups/:gid", h.Groups.Get)
		auth.GET("/groups/:gid/members", h.Groups.Members)
		auth.PUT("/groups/:gid/members/:uid", h.Groups.PutMember)
		auth.DELETE("/groups/:gid/members/:uid", h.Groups.RemoveMember)
		auth.PUT("/groups/:gid/settings", h.Groups.Settings)

		auth.POST("/groups/:gid/proposals", h.Proposals.Create)
		auth.GET("/groups/:gid/proposals", h.Proposals.List)
		auth.GET("/proposals/:id", h.Proposals.Get)
		auth.POST("/proposals/:id/execute", h.Proposals.Execute)
		vote := []gin.HandlerFunc{h.Proposals.Vote}
		if cfg.VoteLimiter != nil {
			vote = append([]gin.HandlerFunc{middleware.RateLimitMiddleware(cfg.VoteLimiter)}, vote...)
		}
		auth.POST("/proposals/:id/votes", vote...)

		auth.POST("/groups/:gid/contributions", h.Ledger.Contribute)
		auth.GET("/groups/:gid/transactions", h.Ledger.Transactions)
		auth.GET("/groups/:gid/summary", h.Ledger.Summary)
	}
}

func health(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
