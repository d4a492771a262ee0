package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/adapters/memory"
	"github.com/coregx/toolcast/model"
)

var (
	_ toolcast.CatalogRepository    = (*memory.CatalogRepository)(nil)
	_ toolcast.SubmissionRepository = (*memory.SubmissionRepository)(nil)
	_ toolcast.ReviewRepository     = (*memory.ReviewRepository)(nil)
	_ toolcast.SubscriberRepository = (*memory.SubscriberRepository)(nil)
)

func TestCatalogRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCatalogRepository()

	_, err := repo.Load(ctx, 1)
	assert.True(t, toolcast.IsNoData(err))

	item, err := repo.Save(ctx, model.NewCatalogItem("A", "cat", "", "https://a.example", model.PricingFree))
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)

	item.Name = "A2"
	_, err = repo.Save(ctx, item)
	require.NoError(t, err)

	loaded, err := repo.Load(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", loaded.Name)

	require.NoError(t, repo.Delete(ctx, item.ID))
	assert.True(t, toolcast.IsNoData(repo.Delete(ctx, item.ID)))

	_, err = repo.Save(ctx, item)
	assert.True(t, toolcast.IsNoData(err), "updating a deleted item must not recreate it")
}

func TestCatalogRepository_ListFilterAndPage(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCatalogRepository()
	base := time.Now()

	for i := 0; i < 5; i++ {
		item := model.NewCatalogItem("tool", "dev", "", "https://t.example", model.PricingFree)
		item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i%2 == 0 {
			item.Status = model.ItemStatusApproved
		}
		_, err := repo.Save(ctx, item)
		require.NoError(t, err)
	}

	approved := model.CatalogFilter{Status: model.ItemStatusApproved}
	n, err := repo.Count(ctx, approved)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := repo.List(ctx, model.CatalogFilter{}, model.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(5), page[0].ID, "newest first")
	assert.Equal(t, int64(4), page[1].ID)

	empty, err := repo.List(ctx, model.CatalogFilter{}, model.Page{Number: 10, Size: 2})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSubmissionRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubmissionRepository()

	sub, err := repo.Save(ctx, model.NewSubmission("n", "https://n.example", "d", "c", ""))
	require.NoError(t, err)

	at := time.Now().Add(time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, sub.ID, model.SubmissionStatusRejected, true, at))

	loaded, err := repo.Load(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusRejected, loaded.Status)
	assert.True(t, loaded.Reviewed)
	assert.True(t, loaded.UpdatedAt.Equal(at))

	assert.True(t, toolcast.IsNoData(repo.UpdateStatus(ctx, 99, model.SubmissionStatusApproved, true, at)))
}

func TestReviewRepository_IncrementHelpfulConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReviewRepository()

	review, err := repo.Save(ctx, model.NewReview("1", 5, "Ann", "", "great"))
	require.NoError(t, err)

	const k = 100
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementHelpful(ctx, review.ID))
		}()
	}
	wg.Wait()

	loaded, err := repo.Load(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, k, loaded.Helpful)

	// A stale full-record save must not roll the counter back.
	review.Comment = "still great"
	_, err = repo.Save(ctx, review)
	require.NoError(t, err)
	loaded, err = repo.Load(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, k, loaded.Helpful)

	assert.True(t, toolcast.IsNoData(repo.IncrementHelpful(ctx, 42)))
}

func TestSubscriberRepository_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubscriberRepository()

	first, err := repo.Save(ctx, model.NewSubscriber("Ann@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", first.Email)

	_, err = repo.Save(ctx, model.NewSubscriber("ann@example.com"))
	assert.Error(t, err)
	assert.Equal(t, 1, repo.Len())

	found, err := repo.FindByEmail(ctx, "ANN@example.com ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestSubscriberRepository_FindActive(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubscriberRepository()

	_, err := repo.FindActive(ctx)
	assert.True(t, toolcast.IsNoData(err))

	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		_, err := repo.Save(ctx, model.NewSubscriber(email))
		require.NoError(t, err)
	}
	require.NoError(t, repo.SetActive(ctx, 2, false))

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].ID)
	assert.Equal(t, int64(3), active[1].ID)

	n, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, toolcast.IsNoData(repo.SetActive(ctx, 9, true)))
	assert.True(t, toolcast.IsNoData(repo.TouchSubscribedAt(ctx, 9, time.Now())))
}

func TestSubscriberRepository_Reactivate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubscriberRepository()

	sub, err := repo.Save(ctx, model.NewSubscriber("ann@example.com"))
	require.NoError(t, err)
	require.NoError(t, repo.SetActive(ctx, sub.ID, false))

	at := sub.SubscribedAt.Add(time.Hour)
	require.NoError(t, repo.Reactivate(ctx, sub.ID, at))

	stored, err := repo.Load(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.True(t, at.Equal(stored.SubscribedAt))

	assert.True(t, toolcast.IsNoData(repo.Reactivate(ctx, 9, at)))
}
