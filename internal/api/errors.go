package api

import (
	"errors"
	"net/http"

	"github.com/ignite/adpilot/internal/optimizer"
	"github.com/ignite/adpilot/internal/pkg/httpretry"
	"github.com/ignite/adpilot/internal/pkg/httputil"
	"github.com/ignite/adpilot/internal/platform"
	"github.com/ignite/adpilot/internal/unified"
)

// requestError marks a caller-input problem discovered past the decode
// stage.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

// writeError translates the error taxonomy onto HTTP status codes with
// machine-readable error codes. Caller-input problems are 4xx; upstream
// platform trouble is 5xx with the class spelled out.
func writeError(w http.ResponseWriter, err error) {
	var (
		reqErr     *requestError
		validation *platform.ValidationError
		budget     *optimizer.BudgetConstraintError
		auth       *platform.AuthenticationError
		exhausted  *httpretry.ExhaustedError
		rateLimit  *platform.RateLimitError
	)

	switch {
	case errors.As(err, &reqErr):
		httputil.ErrorCode(w, http.StatusBadRequest, "validation_error", reqErr.msg)
	case errors.As(err, &validation):
		httputil.ErrorCode(w, http.StatusBadRequest, "validation_error", validation.Error())
	case errors.Is(err, optimizer.ErrInvalidRequest):
		httputil.ErrorCode(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.As(err, &budget):
		httputil.ErrorCode(w, http.StatusUnprocessableEntity, "budget_constraint_error", budget.Error())
	case errors.Is(err, unified.ErrAmbiguousCampaign):
		httputil.ErrorCode(w, http.StatusConflict, "ambiguous_campaign", err.Error())
	case errors.Is(err, unified.ErrUnknownCampaign):
		httputil.ErrorCode(w, http.StatusNotFound, "unknown_campaign", err.Error())
	case errors.As(err, &auth):
		httputil.ErrorCode(w, http.StatusBadGateway, "platform_authentication_failed", auth.Error())
	case errors.Is(err, unified.ErrAllPlatformsFailed):
		httputil.ErrorCode(w, http.StatusBadGateway, "all_platforms_failed", err.Error())
	case errors.As(err, &exhausted), errors.As(err, &rateLimit):
		httputil.ErrorCode(w, http.StatusServiceUnavailable, "platform_unavailable", err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
