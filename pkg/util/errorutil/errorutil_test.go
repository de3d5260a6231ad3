package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", fmt.Errorf("wrap: %w", NewInvalidState("nope", nil)), CodeInvalidState, http.StatusBadRequest},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ColumnName: "asset_tag"}, CodeValidation, http.StatusBadRequest},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, CodeReferentialIntegrity, http.StatusBadRequest},
		{"check violation", &pgconn.PgError{Code: "23514"}, CodeValidation, http.StatusBadRequest},
		{"fiber not found", fiber.ErrNotFound, CodeNotFound, http.StatusNotFound},
		{"fiber too many requests", fiber.ErrTooManyRequests, "RATE_LIMITED", http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}
	assert.Nil(t, ToDomainError(nil))
}

func TestUniqueViolationNamesField(t *testing.T) {
	got := ToDomainError(&pgconn.PgError{Code: "23505", ConstraintName: "assets_serial_number_key"})
	assert.Equal(t, "assets_serial_number_key", got.Details["field"])
}

func TestInternalErrorKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(cause, CodeInternal))
}
