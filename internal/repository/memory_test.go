package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvforge/cvforge-api/internal/model"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user := &model.User{ID: "u1", Email: "alice@example.com", FullName: "Alice"}
	require.NoError(t, repo.Create(ctx, user))

	err := repo.Create(ctx, &model.User{ID: "u2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FullName)

	_, err = repo.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryUserRepositoryConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, &model.User{ID: fmt.Sprintf("u%d", i), Email: "same@example.com"})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryResumeRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResumeRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &model.Resume{
		ID: "r1", UserID: "alice", Title: "CV", Template: "modern",
		Data: model.NewResumeDocument(), CreatedAt: now, UpdatedAt: now,
	}))

	_, err := repo.GetByID(ctx, "bob", "r1")
	assert.ErrorIs(t, err, ErrResumeNotFound)

	title := "hijacked"
	assert.ErrorIs(t, repo.Update(ctx, "bob", "r1", model.ResumePatch{Title: &title}, now), ErrResumeNotFound)
	assert.ErrorIs(t, repo.SetUploadedFile(ctx, "bob", "r1", "x", now), ErrResumeNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "bob", "r1"), ErrResumeNotFound)

	got, err := repo.GetByID(ctx, "alice", "r1")
	require.NoError(t, err)
	assert.Equal(t, "CV", got.Title)
	assert.Nil(t, got.UploadedFile)
}

func TestMemoryResumeRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResumeRepository()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := created.Add(time.Minute)

	require.NoError(t, repo.Create(ctx, &model.Resume{
		ID: "r1", UserID: "alice", Title: "CV", Template: "modern",
		Data: model.NewResumeDocument(), CreatedAt: created, UpdatedAt: created,
	}))

	classic := "classic"
	require.NoError(t, repo.Update(ctx, "alice", "r1", model.ResumePatch{Template: &classic}, later))
	require.NoError(t, repo.SetUploadedFile(ctx, "alice", "r1", "r1_a.pdf", later))

	got, err := repo.GetByID(ctx, "alice", "r1")
	require.NoError(t, err)
	assert.Equal(t, "classic", got.Template)
	assert.Equal(t, "CV", got.Title)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, later, got.UpdatedAt)
	require.NotNil(t, got.UploadedFile)
	assert.Equal(t, "r1_a.pdf", *got.UploadedFile)

	require.NoError(t, repo.Delete(ctx, "alice", "r1"))
	_, err = repo.GetByID(ctx, "alice", "r1")
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestMemoryResumeRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResumeRepository()

	in := &model.Resume{ID: "r1", UserID: "alice", Data: model.ResumeDocument{Skills: []string{"go"}}}
	require.NoError(t, repo.Create(ctx, in))
	in.Data.Skills[0] = "mutated"

	got, err := repo.GetByID(ctx, "alice", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, got.Data.Skills)

	got.Data.Skills[0] = "mutated again"
	again, err := repo.GetByID(ctx, "alice", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, again.Data.Skills)
}

func TestMemoryResumeRepositoryListOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResumeRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Create(ctx, &model.Resume{ID: id, UserID: "alice", CreatedAt: base.Add(time.Duration(i) * time.Second)}))
	}
	require.NoError(t, repo.Create(ctx, &model.Resume{ID: "z", UserID: "bob", CreatedAt: base}))

	list, err := repo.ListByUser(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = repo.ListByUser(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.ListByUser(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
