package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

func seedAsset(t *testing.T, db *DB) (*domain.Category, *domain.Asset) {
	t.Helper()
	ctx := context.Background()
	store := db.Store()
	category := &domain.Category{Name: "Laptops", Code: "LAP", Status: domain.StatusActive}
	require.NoError(t, store.Categories.Create(ctx, category))
	asset := &domain.Asset{
		AssetTag: "LAP-001", SerialNumber: "SN1", CategoryID: category.ID,
		Make: "Dell", Model: "XPS", Status: domain.AssetStatusAvailable, Condition: domain.ConditionGood,
	}
	require.NoError(t, store.Assets.Create(ctx, asset))
	return category, asset
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := New()
	_, asset := seedAsset(t, db)
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		require.NoError(t, st.Assets.SetStatus(ctx, asset.ID, domain.AssetStatusAssigned, domain.ConditionGood))
		require.NoError(t, st.History.Create(ctx, &domain.AssetHistory{AssetID: asset.ID, Action: domain.ActionIssue}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	current, err := db.Store().Assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, current.Status)

	count, err := db.Store().History.Count(ctx, repository.HistoryFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	db := New()
	_, asset := seedAsset(t, db)

	assert.Panics(t, func() {
		_ = db.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
			_ = st.Assets.SetStatus(ctx, asset.ID, domain.AssetStatusScrapped, domain.ConditionPoor)
			panic("boom")
		})
	})

	current, err := db.Store().Assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, current.Status)
}

func TestWithinTxCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New().WithinTx(ctx, func(context.Context, *repository.Store) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestUniqueAndForeignKeys(t *testing.T) {
	ctx := context.Background()
	db := New()
	category, _ := seedAsset(t, db)
	store := db.Store()

	dup := &domain.Asset{AssetTag: "LAP-001", SerialNumber: "SN2", CategoryID: category.ID, Make: "Dell", Model: "XPS"}
	err := store.Assets.Create(ctx, dup)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)

	orphan := &domain.Asset{AssetTag: "LAP-009", SerialNumber: "SN9", CategoryID: "missing", Make: "Dell", Model: "XPS"}
	err = store.Assets.Create(ctx, orphan)
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23503", pgErr.Code)

	_, err = store.Assets.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestAssetDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := New()
	_, asset := seedAsset(t, db)
	store := db.Store()

	require.NoError(t, store.History.Create(ctx, &domain.AssetHistory{AssetID: asset.ID, Action: domain.ActionRepair}))
	require.NoError(t, store.Assets.Delete(ctx, asset.ID))

	count, err := store.History.Count(ctx, repository.HistoryFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.ErrorIs(t, store.Assets.Delete(ctx, asset.ID), pgx.ErrNoRows)
}

func TestPage(t *testing.T) {
	from, to := page(25, 10, 20, 10)
	assert.Equal(t, 20, from)
	assert.Equal(t, 25, to)

	from, to = page(5, 10, 50, 10)
	assert.Equal(t, 5, from)
	assert.Equal(t, 5, to)

	from, to = page(5, 0, 0, 3)
	assert.Equal(t, 0, from)
	assert.Equal(t, 3, to)
}

func TestReadsOutsideTxIgnoreUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	db := New()
	_, asset := seedAsset(t, db)
	written := make(chan struct{})
	release := make(chan struct{})
	boom := errors.New("boom")

	done := make(chan error, 1)
	go func() {
		done <- db.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
			if err := st.Assets.SetStatus(ctx, asset.ID, domain.AssetStatusAssigned, domain.ConditionGood); err != nil {
				return err
			}
			inside, err := st.Assets.GetByID(ctx, asset.ID)
			if err != nil {
				return err
			}
			if inside.Status != domain.AssetStatusAssigned {
				return errors.New("transaction does not see its own write")
			}
			close(written)
			<-release
			return boom
		})
	}()

	<-written
	during, err := db.Store().Assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, during.Status)

	close(release)
	require.ErrorIs(t, <-done, boom)

	after, err := db.Store().Assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, after.Status)
}

func TestReadsOutsideTxSeeCommittedWrites(t *testing.T) {
	ctx := context.Background()
	db := New()
	_, asset := seedAsset(t, db)
	written := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- db.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
			if err := st.Assets.SetStatus(ctx, asset.ID, domain.AssetStatusAssigned, domain.ConditionGood); err != nil {
				return err
			}
			close(written)
			<-release
			return nil
		})
	}()

	<-written
	during, err := db.Store().Assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAvailable, during.Status)

	close(release)
	require.NoError(t, <-done)

	after, err := db.Store().Assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusAssigned, after.Status)
}
