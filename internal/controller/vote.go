package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/middleware"
)

// VotePayload is the expected vote request
type VotePayload struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// Vote handles POST /api/proposals/:id/votes.
func (h *ProposalHandler) Vote(c *gin.Context) {
	var payload VotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.engine.CastVote(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey), payload.Decision, payload.Comment)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded successfully", "proposal": p})
}
