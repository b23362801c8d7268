package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CedarStreetLab/loanmarket/pkg/league"
	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

// mapToHTTPStatus translates domain errors into an HTTP status and a
// stable error code. Payment errors are checked before the generic
// not-found category they wrap.
func mapToHTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, market.ErrPaymentCompleted):
		return http.StatusConflict, "payment_completed"
	case errors.Is(err, market.ErrPaymentFailed):
		return http.StatusUnprocessableEntity, "payment_not_verified"
	case errors.Is(err, market.ErrNotFound), errors.Is(err, league.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, market.ErrLoanNotPending):
		return http.StatusConflict, "loan_not_pending"
	case errors.Is(err, market.ErrAlreadyRegistered):
		return http.StatusConflict, "already_registered"
	case errors.Is(err, market.ErrLedgerUnavailable):
		return http.StatusBadGateway, "ledger_unavailable"
	case errors.Is(err, market.ErrInvalidPayload),
		errors.Is(err, market.ErrInvalidIdentity),
		errors.Is(err, market.ErrInvalidAmount),
		errors.Is(err, market.ErrInvalidLoanStatus),
		errors.Is(err, league.ErrInvalidPayload),
		errors.Is(err, league.ErrInvalidRole),
		errors.Is(err, league.ErrInvalidSport),
		errors.Is(err, league.ErrInvalidStructure):
		return http.StatusBadRequest, "invalid_payload"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(ctx *gin.Context, err error) {
	status, code := mapToHTTPStatus(err)
	ctx.JSON(status, errorResponse(code, err.Error()))
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
