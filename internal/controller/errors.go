package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/ledger"
	"github.com/saxenaaman628/badenya/internal/proposals"
	"go.uber.org/zap"
)

var kindStatus = map[proposals.Kind]int{
	proposals.KindValidation:        http.StatusBadRequest,
	proposals.KindInvalidDecision:   http.StatusBadRequest,
	proposals.KindNotAMember:        http.StatusForbidden,
	proposals.KindInsufficientRole:  http.StatusForbidden,
	proposals.KindNotFound:          http.StatusNotFound,
	proposals.KindVotingClosed:      http.StatusConflict,
	proposals.KindDuplicateVote:     http.StatusConflict,
	proposals.KindInvalidTransition: http.StatusConflict,
	proposals.KindAlreadyExecuted:   http.StatusConflict,
	proposals.KindExecutionFailed:   http.StatusBadGateway,
}

// classify maps an error to an HTTP status and a machine-readable kind.
func classify(err error) (int, string) {
	var pe *proposals.Error
	if errors.As(err, &pe) {
		if status, ok := kindStatus[pe.Kind]; ok {
			return status, string(pe.Kind)
		}
	}
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorInvalidInput), errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrAmountPrecision):
		return http.StatusBadRequest, string(proposals.KindValidation)
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal"
}

// RespondError writes the error body and logs server-side failures.
func RespondError(c *gin.Context, log *zap.Logger, err error) {
	status, kind := classify(err)
	body := gin.H{"error": err.Error(), "kind": kind}

	var pe *proposals.Error
	if errors.As(err, &pe) && len(pe.Fields) > 0 {
		body["fields"] = pe.Fields
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", kind),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			body["error"] = "internal server error"
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error(), "kind": string(proposals.KindValidation)})
}
