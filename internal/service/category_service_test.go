package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/repository"
	"github.com/spec-kit/asset-tracker/internal/service"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

func TestNormalizeCategoryCode(t *testing.T) {
	code, err := service.NormalizeCategoryCode(" lap ")
	require.NoError(t, err)
	assert.Equal(t, "LAP", code)

	_, err = service.NormalizeCategoryCode("x")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = service.NormalizeCategoryCode("ABCDEFGHIJK")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCategoryUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, "Laptops", "LAP")

	_, err := f.categories.Create(ctx, f.actor, service.CategoryInput{Name: ptr("laptops"), Code: ptr("LT")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = f.categories.Create(ctx, f.actor, service.CategoryInput{Name: ptr("Notebooks"), Code: ptr("lap")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCategoryDeleteBlockedByAssets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.category(t, "Laptops", "LAP")
	a := f.asset(t, c.ID, "LAP-001", "10")

	_, err := f.lifecycle.Scrap(ctx, f.actor, service.ScrapInput{AssetID: a.ID, Reason: "Obsolete"})
	require.NoError(t, err)

	err = f.categories.Delete(ctx, f.actor, c.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReferentialIntegrity))
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, 1, domainErr.Details["assetCount"])

	list, err := f.categories.List(ctx, repository.CategoryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].AssetCount)

	require.NoError(t, f.assets.Delete(ctx, f.actor, a.ID))
	require.NoError(t, f.categories.Delete(ctx, f.actor, c.ID))

	_, err = f.categories.Get(ctx, c.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
