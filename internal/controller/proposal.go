package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/groups"
	"github.com/saxenaaman628/badenya/internal/middleware"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/saxenaaman628/badenya/internal/proposals"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProposalHandler struct {
	engine *proposals.Engine
	groups *groups.Service
	log    *zap.Logger
}

func NewProposalHandler(engine *proposals.Engine, groups *groups.Service, log *zap.Logger) *ProposalHandler {
	return &ProposalHandler{engine: engine, groups: groups, log: log}
}

type createProposalRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Amount         decimal.Decimal   `json:"amount"`
	Category       models.Category   `json:"category"`
	Priority       models.Priority   `json:"priority"`
	Recipient      *models.Recipient `json:"recipient"`
	VotingDeadline time.Time         `json:"voting_deadline"`
}

// Create handles POST /api/groups/:gid/proposals.
func (h *ProposalHandler) Create(c *gin.Context) {
	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.engine.CreateProposal(c.Request.Context(), c.Param("gid"), c.GetString(middleware.UserIDKey), proposals.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Amount:         req.Amount,
		Category:       req.Category,
		Priority:       req.Priority,
		Recipient:      req.Recipient,
		VotingDeadline: req.VotingDeadline,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// List handles GET /api/groups/:gid/proposals?status=pending,approved.
func (h *ProposalHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	gid := c.Param("gid")
	if _, err := h.groups.RequireMember(ctx, gid, c.GetString(middleware.UserIDKey)); err != nil {
		RespondError(c, h.log, err)
		return
	}

	var statuses []models.ProposalStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := models.ProposalStatus(strings.TrimSpace(s))
			if !st.Valid() {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status " + s, "kind": string(proposals.KindValidation)})
				return
			}
			statuses = append(statuses, st)
		}
	}

	list, err := h.engine.ListProposalsForGroup(ctx, gid, statuses...)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": list, "count": len(list)})
}

// Get handles GET /api/proposals/:id. Callers outside the proposal's group see 404.
func (h *ProposalHandler) Get(c *gin.Context) {
	p, err := h.engine.ViewProposal(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Execute handles POST /api/proposals/:id/execute.
func (h *ProposalHandler) Execute(c *gin.Context) {
	p, err := h.engine.ExecuteProposal(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
