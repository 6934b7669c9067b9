package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/groups"
	"github.com/saxenaaman628/badenya/internal/middleware"
	"github.com/saxenaaman628/badenya/internal/models"
	"go.uber.org/zap"
)

type GroupHandler struct {
	groups *groups.Service
	log    *zap.Logger
}

func NewGroupHandler(groups *groups.Service, log *zap.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, log: log}
}

type createGroupRequest struct {
	Name          string   `json:"name" binding:"required"`
	Currency      string   `json:"currency"`
	QuorumPercent *float64 `json:"quorum_percent"`
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.groups.Create(c.Request.Context(), c.GetString(middleware.UserIDKey), groups.CreateInput{
		Name:          req.Name,
		Currency:      req.Currency,
		QuorumPercent: req.QuorumPercent,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	h.log.Info("group created", zap.String("group_id", g.ID), zap.String("created_by", g.CreatedBy))
	c.JSON(http.StatusCreated, g)
}

func (h *GroupHandler) Get(c *gin.Context) {
	g, err := h.groups.Get(c.Request.Context(), c.Param("gid"), c.GetString(middleware.UserIDKey))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GroupHandler) Members(c *gin.Context) {
	members, err := h.groups.Members(c.Request.Context(), c.Param("gid"), c.GetString(middleware.UserIDKey))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type putMemberRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

func (h *GroupHandler) PutMember(c *gin.Context) {
	var req putMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.groups.SetMember(c.Request.Context(), c.Param("gid"), c.GetString(middleware.UserIDKey), c.Param("uid"), req.Role)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.groups.RemoveMember(c.Request.Context(), c.Param("gid"), c.GetString(middleware.UserIDKey), c.Param("uid")); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type settingsRequest struct {
	QuorumPercent *float64 `json:"quorum_percent"`
}

// Settings handles PUT /api/groups/:gid/settings. A null quorum restores the service default.
func (h *GroupHandler) Settings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.groups.SetQuorum(c.Request.Context(), c.Param("gid"), c.GetString(middleware.UserIDKey), req.QuorumPercent)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
