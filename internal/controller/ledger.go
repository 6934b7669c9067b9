package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/groups"
	"github.com/saxenaaman628/badenya/internal/ledger"
	"github.com/saxenaaman628/badenya/internal/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LedgerHandler struct {
	ledger *ledger.Service
	groups *groups.Service
	log    *zap.Logger
}

func NewLedgerHandler(ledger *ledger.Service, groups *groups.Service, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, groups: groups, log: log}
}

type contributionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (h *LedgerHandler) Contribute(c *gin.Context) {
	var req contributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	gid, uid := c.Param("gid"), c.GetString(middleware.UserIDKey)
	if _, err := h.groups.RequireMember(ctx, gid, uid); err != nil {
		RespondError(c, h.log, err)
		return
	}
	tx, err := h.ledger.RecordContribution(ctx, gid, uid, req.Amount, req.Description)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	h.log.Info("contribution recorded", zap.String("group_id", gid), zap.String("user_id", uid), zap.String("amount", tx.Amount.String()))
	c.JSON(http.StatusCreated, tx)
}

func (h *LedgerHandler) Transactions(c *gin.Context) {
	ctx := c.Request.Context()
	gid := c.Param("gid")
	if _, err := h.groups.RequireMember(ctx, gid, c.GetString(middleware.UserIDKey)); err != nil {
		RespondError(c, h.log, err)
		return
	}
	txs, err := h.ledger.Transactions(ctx, gid)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "count": len(txs)})
}

func (h *LedgerHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	gid := c.Param("gid")
	if _, err := h.groups.RequireMember(ctx, gid, c.GetString(middleware.UserIDKey)); err != nil {
		RespondError(c, h.log, err)
		return
	}
	s, err := h.ledger.Summary(ctx, gid)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
