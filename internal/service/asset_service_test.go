package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/service"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

func TestAssetCreateDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")

	a, err := f.assets.Create(ctx, f.actor, service.AssetInput{
		AssetTag:      ptr(" LAP-001 "),
		SerialNumber:  ptr("SN1"),
		CategoryID:    &c.ID,
		Make:          ptr("Dell"),
		Model:         ptr("XPS"),
		PurchasePrice: ptr(decimal.RequireFromString("1299.999")),
	})
	require.NoError(t, err)
	assert.Equal(t, "LAP-001", a.AssetTag)
	assert.Equal(t, domain.AssetStatusAvailable, a.Status)
	assert.Equal(t, domain.ConditionGood, a.Condition)
	assert.Equal(t, domain.DefaultBranch, a.Branch)
	assert.Equal(t, "1300.00", a.PurchasePrice.StringFixed(2))
	require.NotNil(t, a.Category)
	assert.Equal(t, "Laptops", a.Category.Name)

	history, err := f.lifecycle.Timeline(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAssetCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	f.asset(t, c.ID, "LAP-001", "10")

	base := func() service.AssetInput {
		return service.AssetInput{
			AssetTag:     ptr("LAP-002"),
			SerialNumber: ptr("SN-LAP-002"),
			CategoryID:   &c.ID,
			Make:         ptr("Dell"),
			Model:        ptr("XPS"),
		}
	}

	cases := map[string]func(in *service.AssetInput){
		"missing make":       func(in *service.AssetInput) { in.Make = nil },
		"blank model":        func(in *service.AssetInput) { in.Model = ptr("  ") },
		"duplicate tag":      func(in *service.AssetInput) { in.AssetTag = ptr("LAP-001") },
		"duplicate serial":   func(in *service.AssetInput) { in.SerialNumber = ptr("SN-LAP-001") },
		"unknown category":   func(in *service.AssetInput) { in.CategoryID = ptr(uuid.NewString()) },
		"negative price":     func(in *service.AssetInput) { in.PurchasePrice = ptr(decimal.NewFromInt(-1)) },
		"non available":      func(in *service.AssetInput) { in.Status = ptr(domain.AssetStatusAssigned) },
		"unknown condition":  func(in *service.AssetInput) { in.Condition = ptr(domain.AssetCondition("Mint")) },
		"malformed category": func(in *service.AssetInput) { in.CategoryID = ptr("abc") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base()
			in.ImageURL = ptr("/uploads/" + name + ".png")
			mutate(&in)
			_, err := f.assets.Create(ctx, f.actor, in)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), err.Error())
			assert.Contains(t, f.images.released, "/uploads/"+name+".png")
		})
	}
}

func TestAssetUpdateStatusRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	alice := f.employee(t, "E001", "Alice")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.assets.Update(ctx, f.actor, a.ID, service.AssetInput{Status: ptr(domain.AssetStatusScrapped)})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = f.assets.Update(ctx, f.actor, a.ID, service.AssetInput{Status: ptr(domain.AssetStatus("Lost"))})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: alice.ID})
	require.NoError(t, err)
	_, err = f.lifecycle.Return(ctx, f.actor, service.ReturnInput{AssetID: a.ID, Condition: ptr(domain.ConditionPoor)})
	require.NoError(t, err)

	updated, err := f.assets.Update(ctx, f.actor, a.ID, service.AssetInput{
		Status:    ptr(domain.AssetStatusAvailable),
		Condition: ptr(domain.ConditionFair),
		Location:  ptr("Shelf 3"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, updated.Status)
	assert.Equal(t, domain.ConditionFair, updated.Condition)
	assert.Equal(t, "Shelf 3", *updated.Location)
	assert.Equal(t, "Dell", updated.Make)
}

func TestAssetUpdateReplacesImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.assets.Update(ctx, f.actor, a.ID, service.AssetInput{ImageURL: ptr("/uploads/one.png")})
	require.NoError(t, err)
	assert.Empty(t, f.images.released)

	updated, err := f.assets.Update(ctx, f.actor, a.ID, service.AssetInput{ImageURL: ptr("/uploads/two.png")})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/two.png", *updated.ImageURL)
	assert.Equal(t, []string{"/uploads/one.png"}, f.images.released)

	f.asset(t, c.ID, "LAP-002", "10")
	_, err = f.assets.Update(ctx, f.actor, a.ID, service.AssetInput{AssetTag: ptr("LAP-002"), ImageURL: ptr("/uploads/three.png")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Equal(t, []string{"/uploads/one.png", "/uploads/three.png"}, f.images.released)

	current, err := f.assets.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "LAP-001", current.AssetTag)
	assert.Equal(t, "/uploads/two.png", *current.ImageURL)
}

func TestAssetDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	alice := f.employee(t, "E001", "Alice")
	a, err := f.assets.Create(ctx, f.actor, service.AssetInput{
		AssetTag: ptr("LAP-001"), SerialNumber: ptr("SN1"), CategoryID: &c.ID,
		Make: ptr("Dell"), Model: ptr("XPS"), ImageURL: ptr("/uploads/a.png"),
	})
	require.NoError(t, err)

	_, err = f.lifecycle.Issue(ctx, f.actor, service.IssueInput{AssetID: a.ID, EmployeeID: alice.ID})
	require.NoError(t, err)
	err = f.assets.Delete(ctx, f.actor, a.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = f.lifecycle.Return(ctx, f.actor, service.ReturnInput{AssetID: a.ID})
	require.NoError(t, err)
	require.NoError(t, f.assets.Delete(ctx, f.actor, a.ID))
	assert.Equal(t, []string{"/uploads/a.png"}, f.images.released)

	_, err = f.assets.Get(ctx, a.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	page, err := f.lifecycle.ListHistory(ctx, service.HistoryQuery{AssetID: &a.ID})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	err = f.assets.Delete(ctx, f.actor, a.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAssetList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	laptops := f.category(t, "Laptops", "LAP")
	phones := f.category(t, "Phones", "PHN")
	for _, tag := range []string{"LAP-001", "LAP-002", "LAP-003"} {
		f.asset(t, laptops.ID, tag, "10")
	}
	f.asset(t, phones.ID, "PHN-001", "10")

	page, err := f.assets.List(ctx, service.AssetQuery{PageRequest: service.PageRequest{Page: 2, Limit: 3}})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Assets, 1)

	page, err = f.assets.List(ctx, service.AssetQuery{CategoryID: &phones.ID})
	require.NoError(t, err)
	require.Len(t, page.Assets, 1)
	assert.Equal(t, "PHN-001", page.Assets[0].AssetTag)

	page, err = f.assets.List(ctx, service.AssetQuery{Search: ptr("lap-00")})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	_, err = f.assets.List(ctx, service.AssetQuery{Status: ptr(domain.AssetStatus("Lost"))})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestAssetListHugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	laptops := f.category(t, "Laptops", "LAP")
	f.asset(t, laptops.ID, "LAP-001", "10")

	for _, limit := range []int{0, 10, 100, 1000} {
		page, err := f.assets.List(ctx, service.AssetQuery{PageRequest: service.PageRequest{Page: math.MaxInt, Limit: limit}})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Empty(t, page.Assets, "limit %d", limit)
		assert.Greater(t, page.Page, 1)
	}
}
