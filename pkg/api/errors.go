package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/candidflow/interviewer/pkg/interview"
)

// mapServiceError maps core domain errors to HTTP error responses. This
// is the HTTP-facing counterpart to pkg/protocol's MapError, which
// targets WebSocket error frames instead.
func mapServiceError(err error) *echo.HTTPError {
	var invalidTransition *interview.InvalidStateTransitionError
	if errors.As(err, &invalidTransition) {
		return echo.NewHTTPError(http.StatusConflict, invalidTransition.Error())
	}
	var notReady *interview.NotReadyError
	if errors.As(err, &notReady) {
		return echo.NewHTTPError(http.StatusConflict, notReady.Error())
	}
	var stale *interview.StaleConcurrencyTokenError
	if errors.As(err, &stale) {
		return echo.NewHTTPError(http.StatusConflict, stale.Error())
	}

	slog.Error("unexpected api error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
