package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-tracker/internal/auth"
	"github.com/spec-kit/asset-tracker/internal/service"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func pageRequest(c *fiber.Ctx) service.PageRequest {
	return service.PageRequest{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 0),
	}
}

// optionalQuery returns nil for an absent or blank query parameter.
func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

// parseDate accepts YYYY-MM-DD or RFC3339. Blank input yields nil.
func parseDate(field string, val *string) (*time.Time, error) {
	if val == nil || strings.TrimSpace(*val) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*val)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be a date (YYYY-MM-DD)", map[string]any{"field": field})
	}
	return &t, nil
}

// endOfDay widens a bare date upper bound to cover the whole day.
func endOfDay(field string, val *string) (*time.Time, error) {
	t, err := parseDate(field, val)
	if err != nil || t == nil {
		return t, err
	}
	if _, perr := time.Parse(dateLayout, strings.TrimSpace(*val)); perr == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		return &end, nil
	}
	return t, nil
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}
