package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

func TestRenderHistory(t *testing.T) {
	good := domain.ConditionGood
	reason := strings.Repeat("screen cracked badly ", 10)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := make([]domain.HistoryEntry, 0, 60)
	for i := 0; i < 60; i++ {
		entries = append(entries, domain.HistoryEntry{
			AssetHistory: domain.AssetHistory{
				ID:         "h",
				Action:     domain.ActionIssue,
				ActionDate: start.Add(time.Duration(i) * time.Hour),
				Condition:  &good,
				Reason:     &reason,
			},
			Asset:     &domain.AssetSummary{AssetTag: "LAP-001", Make: "Dell", Model: "Latitude 5440"},
			Employee:  &domain.EmployeeSummary{Name: "Zoë Example"},
			Performer: &domain.UserSummary{Name: "Admin"},
		})
	}

	var buf bytes.Buffer
	err := RenderHistory(&buf, HistoryReport{GeneratedAt: start, StartDate: &start, Entries: entries})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistory(&buf, HistoryReport{GeneratedAt: time.Now()}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestPeriodLabel(t *testing.T) {
	a := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Period: 2024-03-01 to 2024-03-31", periodLabel(&a, &b))
	assert.Equal(t, "From: 2024-03-01", periodLabel(&a, nil))
	assert.Equal(t, "", periodLabel(nil, nil))
}
