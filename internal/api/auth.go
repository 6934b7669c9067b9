package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/controller"
	"github.com/saxenaaman628/badenya/internal/users"
	"github.com/saxenaaman628/badenya/internal/utils"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	users    *users.Service
	secret   []byte
	tokenTTL time.Duration
	log      *zap.Logger
}

func NewAuthHandler(users *users.Service, secret []byte, tokenTTL time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, secret: secret, tokenTTL: tokenTTL, log: log}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": "validation_error"})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		controller.RespondError(c, h.log, err)
		return
	}
	h.log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	c.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": "validation_error"})
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, common.ErrorUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "kind": "unauthorized"})
		return
	}
	if err != nil {
		controller.RespondError(c, h.log, err)
		return
	}

	token, err := utils.GenerateJWTToken(h.secret, u.ID, u.Username, h.tokenTTL)
	if err != nil {
		h.log.Error("sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token", "kind": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": u.ID, "expires_in": int(h.tokenTTL.Seconds())})
}
