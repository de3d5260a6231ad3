package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/events"
	"github.com/spec-kit/asset-tracker/internal/repository/memory"
	"github.com/spec-kit/asset-tracker/internal/service"
)

type fixture struct {
	db         *memory.DB
	dispatcher events.Dispatcher
	assets     *service.AssetService
	lifecycle  *service.LifecycleService
	categories *service.CategoryService
	employees  *service.EmployeeService
	requests   *service.AssetRequestService
	stock      *service.StockService
	images     *fakeImages
	recorder   *fakeRecorder
	actor      string
}

type fakeImages struct {
	released []string
}

func (f *fakeImages) Release(_ context.Context, url string) error {
	f.released = append(f.released, url)
	return nil
}

type fakeRecorder struct {
	transitions []string
}

func (f *fakeRecorder) RecordTransition(action, status string) {
	f.transitions = append(f.transitions, action+":"+status)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	store := db.Store()
	dispatcher := events.NewInMemoryDispatcher(nil)
	images := &fakeImages{}
	recorder := &fakeRecorder{}

	return &fixture{
		db:         db,
		dispatcher: dispatcher,
		images:     images,
		recorder:   recorder,
		actor:      uuid.NewString(),
		assets: service.NewAssetService(service.AssetDependencies{
			Store: store, Tx: db.TxRunner(), Images: images, Dispatcher: dispatcher,
		}),
		lifecycle: service.NewLifecycleService(service.LifecycleDependencies{
			Store: store, Tx: db.TxRunner(), Dispatcher: dispatcher, Metrics: recorder,
		}),
		categories: service.NewCategoryService(service.CategoryDependencies{
			Store: store, Tx: db.TxRunner(), Dispatcher: dispatcher,
		}),
		employees: service.NewEmployeeService(store.Employees, nil),
		requests: service.NewAssetRequestService(service.AssetRequestDependencies{
			Store: store, Dispatcher: dispatcher,
		}),
		stock: service.NewStockService(service.StockDependencies{Assets: store.Assets}),
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) category(t *testing.T, name, code string) *domain.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), f.actor, service.CategoryInput{Name: ptr(name), Code: ptr(code)})
	require.NoError(t, err)
	return c
}

func (f *fixture) employee(t *testing.T, code, name string) *domain.Employee {
	t.Helper()
	e, err := f.employees.Create(context.Background(), service.EmployeeInput{
		EmployeeCode: ptr(code),
		Name:         ptr(name),
		Department:   ptr("IT"),
		Email:        ptr(code + "@example.com"),
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) asset(t *testing.T, categoryID, tag, price string) *domain.Asset {
	t.Helper()
	a, err := f.assets.Create(context.Background(), f.actor, service.AssetInput{
		AssetTag:      ptr(tag),
		SerialNumber:  ptr("SN-" + tag),
		CategoryID:    ptr(categoryID),
		Make:          ptr("Dell"),
		Model:         ptr("Latitude"),
		PurchasePrice: ptr(decimal.RequireFromString(price)),
	})
	require.NoError(t, err)
	return a
}
