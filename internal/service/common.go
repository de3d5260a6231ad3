package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/events"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

const (
	maxPageLimit = 100
	// maxPage keeps (page-1)*limit within int.
	maxPage = math.MaxInt / maxPageLimit
)

// PageRequest carries 1-based pagination input.
type PageRequest struct {
	Page  int
	Limit int
}

// normalize fills defaults and returns the limit and offset to query with.
func (p PageRequest) normalize(defaultLimit int) (page, limit, offset int) {
	page, limit = p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit, (page - 1) * limit
}

// PageCount returns ceil(total/limit).
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// requireID validates that value is a well-formed id.
func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	if _, err := uuid.Parse(value); err != nil {
		return apperrors.NewValidationError(field+" must be a valid id", map[string]any{"field": field})
	}
	return nil
}

// notFoundAs turns a missing row into a NotFound error for resource and
// passes every other error through.
func notFoundAs(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

func requiredText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return trimmed, nil
}

// optionalText trims value and maps blank strings to nil.
func optionalText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func conflictError(field string) error {
	return apperrors.NewValidationError(field+" already exists", map[string]any{"field": field})
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
