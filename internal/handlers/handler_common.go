package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openledger-app/openledger/internal/apperrors"
)

// statusForError maps the engine's sentinel errors to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrUnbalanced),
		errors.Is(err, apperrors.ErrDateOrder):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrAlreadyPosted),
		errors.Is(err, apperrors.ErrAlreadyReversed),
		errors.Is(err, apperrors.ErrPeriodClosed),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrLockedWorkspace),
		errors.Is(err, apperrors.ErrUnbalancedWorkspace):
		return http.StatusConflict
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 600 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// respondError writes the error as JSON with the mapped status. Client errors
// expose the message; server errors get a generic body with the detail logged.
func respondError(c *gin.Context, logger *slog.Logger, err error, action string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}
	logger.Warn("Rejected request to "+action, slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}
