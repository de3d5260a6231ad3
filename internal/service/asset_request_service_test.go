package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
	"github.com/spec-kit/asset-tracker/internal/service"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

func (f *fixture) user(t *testing.T, name, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: email, PasswordHash: "x", Role: role, Status: domain.StatusActive}
	require.NoError(t, f.db.Store().Users.Create(context.Background(), u))
	return u
}

func TestAssetRequestWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	alice := f.employee(t, "E001", "Alice")
	a := f.asset(t, c.ID, "LAP-001", "10")
	requester := f.user(t, "Alice", alice.Email, domain.RoleEmployee)
	other := f.user(t, "Mallory", "mallory@example.com", domain.RoleEmployee)
	manager := f.user(t, "Manny", "manny@example.com", domain.RoleManager)

	created, err := f.requests.Create(ctx, requester, service.AssetRequestInput{
		CategoryID:    &c.ID,
		AssetType:     "Laptop",
		Justification: "Current one is slow",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, created.Status)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	require.NotNil(t, created.Employee)
	assert.Equal(t, alice.ID, created.Employee.ID)

	pending, err := f.requests.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	_, err = f.requests.Get(ctx, other, created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	own, err := f.requests.List(ctx, other, nil)
	require.NoError(t, err)
	assert.Empty(t, own)

	all, err := f.requests.List(ctx, manager, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.requests.Review(ctx, manager, created.ID, service.ReviewInput{Status: domain.RequestPending})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	reviewed, err := f.requests.Review(ctx, manager, created.ID, service.ReviewInput{
		Status:          domain.RequestFulfilled,
		ReviewNotes:     ptr("Issued LAP-001"),
		AssignedAssetID: &a.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestFulfilled, reviewed.Status)
	require.NotNil(t, reviewed.Reviewer)
	assert.Equal(t, manager.ID, reviewed.Reviewer.ID)
	require.NotNil(t, reviewed.AssignedAsset)
	assert.Equal(t, "LAP-001", reviewed.AssignedAsset.AssetTag)

	_, err = f.requests.Review(ctx, manager, created.ID, service.ReviewInput{Status: domain.RequestRejected})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	err = f.requests.Delete(ctx, requester, created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	require.NoError(t, f.requests.Delete(ctx, manager, created.ID))
	pending, err = f.requests.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestAssetRequestValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stranger := f.user(t, "Stranger", "stranger@example.com", domain.RoleEmployee)

	_, err := f.requests.Create(ctx, stranger, service.AssetRequestInput{AssetType: "Laptop", Justification: "need"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.requests.Create(ctx, stranger, service.AssetRequestInput{AssetType: " ", Justification: "need"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.requests.Create(ctx, stranger, service.AssetRequestInput{
		AssetType: "Laptop", Justification: "need", Priority: ptr(domain.RequestPriority("Whenever")),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestEmployeeWithRequestsCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.employee(t, "E001", "Alice")
	requester := f.user(t, "Alice", alice.Email, domain.RoleEmployee)

	_, err := f.requests.Create(ctx, requester, service.AssetRequestInput{AssetType: "Monitor", Justification: "Dual screens"})
	require.NoError(t, err)

	err = f.employees.Delete(ctx, alice.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReferentialIntegrity))
}

// reviewAfterRead lets a reviewer act right after the request has been read.
type reviewAfterRead struct {
	repository.AssetRequestRepository
	between func()
}

func (r *reviewAfterRead) GetByID(ctx context.Context, id string) (*domain.AssetRequest, error) {
	request, err := r.AssetRequestRepository.GetByID(ctx, id)
	if r.between != nil {
		between := r.between
		r.between = nil
		between()
	}
	return request, err
}

func TestAssetRequestDeleteLosesToConcurrentReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.employee(t, "E001", "Alice")
	requester := f.user(t, "Alice", alice.Email, domain.RoleEmployee)
	manager := f.user(t, "Manny", "manny@example.com", domain.RoleManager)

	created, err := f.requests.Create(ctx, requester, service.AssetRequestInput{AssetType: "Monitor", Justification: "Second screen"})
	require.NoError(t, err)

	store := *f.db.Store()
	requests := &reviewAfterRead{AssetRequestRepository: store.Requests}
	store.Requests = requests
	svc := service.NewAssetRequestService(service.AssetRequestDependencies{Store: &store, Dispatcher: f.dispatcher})

	requests.between = func() {
		_, err := f.requests.Review(ctx, manager, created.ID, service.ReviewInput{Status: domain.RequestApproved})
		require.NoError(t, err)
	}
	err = svc.Delete(ctx, requester, created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState), "%v", err)

	kept, err := f.requests.Get(ctx, manager, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, kept.Status)
}

func TestAssetRequestRequesterDeletesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.employee(t, "E001", "Alice")
	requester := f.user(t, "Alice", alice.Email, domain.RoleEmployee)

	created, err := f.requests.Create(ctx, requester, service.AssetRequestInput{AssetType: "Monitor", Justification: "Second screen"})
	require.NoError(t, err)
	require.NoError(t, f.requests.Delete(ctx, requester, created.ID))

	pending, err := f.requests.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}
