package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
	"github.com/spec-kit/asset-tracker/internal/service"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

func TestLifecycleIssueReturnScrap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	laptops := f.category(t, "Laptops", "lap")
	alice := f.employee(t, "E001", "Alice")
	a := f.asset(t, laptops.ID, "LAP-001", "1000")

	issued, err := f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionIssue, issued.Action)
	require.NotNil(t, issued.EmployeeID)
	assert.Equal(t, alice.ID, *issued.EmployeeID)
	require.NotNil(t, issued.Employee)
	assert.Equal(t, "Alice", issued.Employee.Name)
	assert.Equal(t, domain.ConditionGood, *issued.Condition)

	current, err := f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAssigned, current.Status)

	returned, err := f.lifecycle.Return(ctx, f.actor, service.ReturnInput{
		AssetID:   a.ID,
		Condition: ptr(domain.ConditionGood),
		Reason:    ptr("Needs repair: keyboard"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionReturn, returned.Action)
	require.NotNil(t, returned.EmployeeID)
	assert.Equal(t, alice.ID, *returned.EmployeeID)

	current, err = f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusUnderRepair, current.Status)

	scrapped, err := f.lifecycle.Scrap(ctx, f.actor, service.ScrapInput{AssetID: a.ID, Reason: "Beyond repair"})
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionPoor, *scrapped.Condition)

	current, err = f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusScrapped, current.Status)
	assert.Equal(t, domain.ConditionPoor, current.Condition)

	timeline, err := f.lifecycle.Timeline(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	assert.Equal(t, domain.ActionScrap, timeline[0].Action)
	assert.Equal(t, domain.ActionReturn, timeline[1].Action)
	assert.Equal(t, domain.ActionIssue, timeline[2].Action)

	assert.Equal(t, []string{"Issue:Assigned", "Return:Under Repair", "Scrap:Scrapped"}, f.recorder.transitions)
}

func TestLifecycleReturnPoorScreenCracked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	laptops := f.category(t, "Laptops", "LAP")
	e := f.employee(t, "E001", "Eve")
	a := f.asset(t, laptops.ID, "LAP-001", "1000")
	require.Equal(t, domain.ConditionGood, a.Condition)

	_, err := f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: e.ID})
	require.NoError(t, err)
	_, err = f.lifecycle.Return(ctx, f.actor, service.ReturnInput{
		AssetID:   a.ID,
		Condition: ptr(domain.ConditionPoor),
		Reason:    ptr("screen cracked"),
	})
	require.NoError(t, err)

	current, err := f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusUnderRepair, current.Status)
	assert.Equal(t, domain.ConditionPoor, current.Condition)

	timeline, err := f.lifecycle.Timeline(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, domain.ActionReturn, timeline[0].Action)
	assert.Equal(t, domain.ActionIssue, timeline[1].Action)
	assert.Equal(t, "screen cracked", *timeline[0].Reason)
}

func TestLifecycleReturnGoodMakesAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	laptops := f.category(t, "Laptops", "LAP")
	e := f.employee(t, "E001", "Eve")
	a := f.asset(t, laptops.ID, "LAP-001", "1000")

	_, err := f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: e.ID})
	require.NoError(t, err)
	returned, err := f.lifecycle.Return(ctx, f.actor, service.ReturnInput{AssetID: a.ID, Condition: ptr(domain.ConditionGood)})
	require.NoError(t, err)
	assert.Equal(t, e.ID, *returned.EmployeeID)

	current, err := f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, current.Status)
	assert.Equal(t, domain.ConditionGood, current.Condition)
}

// brokenHistoryTx runs units of work whose history writes fail after the
// asset status has already been written.
type brokenHistoryTx struct {
	inner repository.TxRunner
	err   error
}

func (r brokenHistoryTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	return r.inner.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		wrapped := *st
		wrapped.History = brokenHistory{AssetHistoryRepository: st.History, err: r.err}
		return fn(ctx, &wrapped)
	})
}

type brokenHistory struct {
	repository.AssetHistoryRepository
	err error
}

func (h brokenHistory) Create(context.Context, *domain.AssetHistory) error {
	return h.err
}

func TestLifecycleRollsBackWhenHistoryWriteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	laptops := f.category(t, "Laptops", "LAP")
	e := f.employee(t, "E001", "Eve")
	a := f.asset(t, laptops.ID, "LAP-001", "1000")

	diskFull := errors.New("disk full")
	recorder := &fakeRecorder{}
	broken := service.NewLifecycleService(service.LifecycleDependencies{
		Store:      f.db.Store(),
		Tx:         brokenHistoryTx{inner: f.db.TxRunner(), err: diskFull},
		Dispatcher: f.dispatcher,
		Metrics:    recorder,
	})

	_, err := broken.Issue(ctx, f.actor, service.IssueInput{
		AssetID: a.ID, EmployeeID: e.ID, Condition: ptr(domain.ConditionFair),
	})
	require.ErrorIs(t, err, diskFull)

	current, err := f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, current.Status)
	assert.Equal(t, domain.ConditionGood, current.Condition)
	assert.Empty(t, recorder.transitions)

	timeline, err := f.lifecycle.Timeline(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline)

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: e.ID})
	require.NoError(t, err)
	_, err = broken.Return(ctx, f.actor, service.ReturnInput{AssetID: a.ID, Condition: ptr(domain.ConditionPoor)})
	require.ErrorIs(t, err, diskFull)

	current, err = f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAssigned, current.Status)
	assert.Equal(t, domain.ConditionGood, current.Condition)
}

func TestReturnStatus(t *testing.T) {
	cases := []struct {
		name      string
		condition *domain.AssetCondition
		reason    *string
		want      domain.AssetStatus
	}{
		{"no input", nil, nil, domain.AssetStatusAvailable},
		{"poor condition", ptr(domain.ConditionPoor), nil, domain.AssetStatusUnderRepair},
		{"fair condition", ptr(domain.ConditionFair), nil, domain.AssetStatusAvailable},
		{"repair in reason", nil, ptr("send for REPAIR"), domain.AssetStatusUnderRepair},
		{"repaired substring", ptr(domain.ConditionExcellent), ptr("was repaired last year"), domain.AssetStatusUnderRepair},
		{"unrelated reason", ptr(domain.ConditionGood), ptr("employee left"), domain.AssetStatusAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.ReturnStatus(tc.condition, tc.reason))
		})
	}
}

func TestIssueRejectsUnavailableAsset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	alice := f.employee(t, "E001", "Alice")
	bob := f.employee(t, "E002", "Bob")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: alice.ID})
	require.NoError(t, err)

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: bob.ID})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	entries, err := f.lifecycle.Timeline(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIssueRejectsInactiveEmployee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	alice := f.employee(t, "E001", "Alice")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.employees.Update(ctx, alice.ID, service.EmployeeInput{Status: ptr(domain.StatusInactive)})
	require.NoError(t, err)

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: alice.ID})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	current, err := f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, current.Status)
}

func TestIssueMissingReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: uuid.NewString()})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: uuid.NewString(), EmployeeID: uuid.NewString()})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: "not-an-id", EmployeeID: uuid.NewString()})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestReturnRequiresAssigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.lifecycle.Return(ctx, f.actor, service.ReturnInput{AssetID: a.ID})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = f.lifecycle.Return(ctx, f.actor, service.ReturnInput{AssetID: a.ID, Condition: ptr(domain.AssetCondition("Broken"))})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestScrapRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	alice := f.employee(t, "E001", "Alice")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.lifecycle.Scrap(ctx, f.actor, service.ScrapInput{AssetID: a.ID, Reason: "   "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: alice.ID})
	require.NoError(t, err)

	_, err = f.lifecycle.Scrap(ctx, f.actor, service.ScrapInput{AssetID: a.ID, Reason: "Broken"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	current, err := f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAssigned, current.Status)

	_, err = f.lifecycle.Return(ctx, f.actor, service.ReturnInput{AssetID: a.ID})
	require.NoError(t, err)
	_, err = f.lifecycle.Scrap(ctx, f.actor, service.ScrapInput{AssetID: a.ID, Reason: "Obsolete"})
	require.NoError(t, err)

	_, err = f.lifecycle.Scrap(ctx, f.actor, service.ScrapInput{AssetID: a.ID, Reason: "Again"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: alice.ID})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

func TestConcurrentIssueHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	a := f.asset(t, c.ID, "LAP-001", "10")

	const workers = 8
	employees := make([]*domain.Employee, workers)
	for i := range employees {
		employees[i] = f.employee(t, "E00"+string(rune('1'+i)), "Worker")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(employeeID string) {
			defer wg.Done()
			_, err := f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: employeeID})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
		}(employees[i].ID)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	entries, err := f.lifecycle.Timeline(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListHistoryFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	alice := f.employee(t, "E001", "Alice")
	bob := f.employee(t, "E002", "Bob")
	a1 := f.asset(t, c.ID, "LAP-001", "10")
	a2 := f.asset(t, c.ID, "LAP-002", "10")

	_, err := f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a1.ID, EmployeeID: alice.ID})
	require.NoError(t, err)
	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a2.ID, EmployeeID: bob.ID})
	require.NoError(t, err)
	_, err = f.lifecycle.Return(ctx, f.actor, service.ReturnInput{AssetID: a1.ID})
	require.NoError(t, err)

	all, err := f.lifecycle.ListHistory(ctx, service.HistoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 1, all.Pages)
	assert.Equal(t, domain.ActionReturn, all.Entries[0].Action)

	byEmployee, err := f.lifecycle.ListHistory(ctx, service.HistoryQuery{EmployeeID: &alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, byEmployee.Total)

	issues, err := f.lifecycle.ListHistory(ctx, service.HistoryQuery{Action: ptr(domain.ActionIssue), PageRequest: service.PageRequest{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, issues.Total)
	assert.Equal(t, 2, issues.Pages)
	assert.Len(t, issues.Entries, 1)

	_, err = f.lifecycle.ListHistory(ctx, service.HistoryQuery{Action: ptr(domain.HistoryAction("Lost"))})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	report, err := f.lifecycle.ReportEntries(ctx, service.HistoryQuery{AssetID: &a1.ID, PageRequest: service.PageRequest{Limit: 1}})
	require.NoError(t, err)
	assert.Len(t, report, 2)
}

func TestTimelineUnknownAsset(t *testing.T) {
	f := newFixture(t)
	_, err := f.lifecycle.Timeline(context.Background(), uuid.NewString())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
