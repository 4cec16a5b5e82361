package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

var sofia = time.FixedZone("EET", 2*60*60)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()

	store, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "db", "news.db"), sofia)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func article(title, source string, published time.Time) domain.Article {
	return domain.Article{
		Title:     title,
		Link:      "https://example.bg/" + title,
		Published: published,
		Source:    source,
	}
}

func insertAll(t *testing.T, store *SQLStore, arts ...domain.Article) {
	t.Helper()
	err := store.InTx(context.Background(), func(tx ports.ArticleTx) error {
		for _, a := range arts {
			if _, err := tx.Insert(context.Background(), a); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestInsertAndListNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, sofia)

	insertAll(t, store,
		article("стар", "Fakti", base),
		article("нов", "Dnevnik", base.Add(2*time.Hour)),
		article("среден", "24chasa", base.Add(time.Hour)),
	)

	got, err := store.List(ctx, ports.ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "нов", got[0].Title)
	assert.Equal(t, "среден", got[1].Title)
	assert.True(t, got[0].Published.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, sofia, got[0].Published.Location())
	assert.False(t, got[0].Classified())

	page2, err := store.List(ctx, ports.ListQuery{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "стар", page2[0].Title)

	total, err := store.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestExistsByTitleAndDeleteAll(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	insertAll(t, store, article("Избори", "Dnevnik", time.Now()))

	err := store.InTx(ctx, func(tx ports.ArticleTx) error {
		ok, err := tx.ExistsByTitle(ctx, "Избори")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.ExistsByTitle(ctx, "Мач")
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := tx.DeleteAll(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	total, err := store.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDuplicateTitleRejected(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	err := store.InTx(ctx, func(tx ports.ArticleTx) error {
		if _, err := tx.Insert(ctx, article("Същото", "Fakti", time.Now())); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, article("Същото", "Dnevnik", time.Now()))
		return err
	})
	require.Error(t, err)

	total, err := store.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, total, "failed transaction must leave no rows")
}

func TestInTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	insertAll(t, store, article("Запазена", "Fakti", time.Now()))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx ports.ArticleTx) error {
		if _, err := tx.DeleteAll(ctx); err != nil {
			return err
		}
		if _, err := tx.Insert(ctx, article("Временна", "Fakti", time.Now())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.List(ctx, ports.ListQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Запазена", got[0].Title)
}

func TestClassifyUnclassified(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	classified := article("Спорт", "Fakti", time.Now())
	classified.Category = domain.CategorySports
	insertAll(t, store, classified, article("Без", "Fakti", time.Now()))

	err := store.InTx(ctx, func(tx ports.ArticleTx) error {
		pending, err := tx.ListUnclassified(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "Без", pending[0].Title)
		return tx.UpdateCategory(ctx, pending[0].ID, domain.CategoryOthers)
	})
	require.NoError(t, err)

	n, err := store.Count(ctx, domain.CategoryOthers)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sports, err := store.List(ctx, ports.ListQuery{Category: domain.CategorySports})
	require.NoError(t, err)
	require.Len(t, sports, 1)
	assert.Equal(t, domain.CategorySports, sports[0].Category)
}

func TestStats(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	day1 := time.Date(2026, 3, 9, 23, 30, 0, 0, sofia)
	day2 := time.Date(2026, 3, 10, 8, 15, 0, 0, sofia)

	a := article("a", "Fakti", day1)
	a.Category = domain.CategoryPolitics
	insertAll(t, store,
		a,
		article("b", "Fakti", day2),
		article("c", "Dnevnik", day2.Add(time.Minute)),
	)

	stats, err := store.Stats(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"Fakti": 2, "Dnevnik": 1}, stats.BySource)
	assert.Equal(t, map[domain.Category]int{domain.CategoryPolitics: 1}, stats.ByCategory)
	assert.Equal(t, map[int]int{23: 1, 8: 2}, stats.ByHour)
	assert.Equal(t, []ports.DayCount{{Day: "2026-03-10", Count: 2}}, stats.TopDays)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "x", time.UTC)
	assert.Error(t, err)
}
