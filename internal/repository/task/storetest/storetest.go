// Package storetest содержит общий набор проверок контракта хранилища задач,
// который прогоняется для каждой реализации.
package storetest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"taskapi/internal/models/task"
	"taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Factory func(t *testing.T) service.TaskRepository

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func RunTaskRepository(t *testing.T, newRepo Factory) {
	t.Run("Insert", func(t *testing.T) { testInsert(t, newRepo(t)) })
	t.Run("GetByID", func(t *testing.T) { testGetByID(t, newRepo(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("UpdateNotFound", func(t *testing.T) { testUpdateNotFound(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("ListAll", func(t *testing.T) { testListAll(t, newRepo(t)) })
	t.Run("ListFilter", func(t *testing.T) { testListFilter(t, newRepo(t)) })
	t.Run("ListPagination", func(t *testing.T) { testListPagination(t, newRepo(t)) })
	t.Run("ListHugePageSize", func(t *testing.T) { testListHugePageSize(t, newRepo(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newRepo(t)) })
	t.Run("ConcurrentInsert", func(t *testing.T) { testConcurrentInsert(t, newRepo(t)) })
}

func testInsert(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	created, err := r.Insert(ctx, task.WithTitle(strPtr("Task 1")), task.WithDescription(strPtr("Desc 1")))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.UUID)
	assert.Equal(t, "Task 1", *created.Title)
	assert.Equal(t, "Desc 1", *created.Description)
	assert.False(t, created.Completed)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	bare, err := r.Insert(ctx)
	require.NoError(t, err)
	assert.Nil(t, bare.Title)
	assert.Nil(t, bare.Description)
	assert.NotEqual(t, created.UUID, bare.UUID)
}

func testGetByID(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	created, err := r.Insert(ctx, task.WithTitle(strPtr("Test Get Task")), task.WithCompleted(true))
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, created.UUID, got.UUID)
	assert.Equal(t, "Test Get Task", *got.Title)
	assert.True(t, got.Completed)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	_, err = r.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testUpdate(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	created, err := r.Insert(ctx, task.WithTitle(strPtr("Original Title")), task.WithDescription(strPtr("Original Desc")))
	require.NoError(t, err)

	updated, err := r.Update(ctx, created.UUID, task.WithTitle(strPtr("Updated Title")))
	require.NoError(t, err)

	assert.Equal(t, "Updated Title", *updated.Title)
	assert.Equal(t, "Original Desc", *updated.Description)
	assert.False(t, updated.Completed)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	again, err := r.Update(ctx, created.UUID, task.WithCompleted(true), task.WithDescription(nil))
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))

	got, err := r.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", *got.Title)
	assert.Nil(t, got.Description)
	assert.True(t, got.Completed)
}

func testUpdateNotFound(t *testing.T, r service.TaskRepository) {
	_, err := r.Update(context.Background(), uuid.New(), task.WithCompleted(true))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testDelete(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	created, err := r.Insert(ctx, task.WithTitle(strPtr("Task to delete")))
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, created.UUID))

	_, err = r.GetByID(ctx, created.UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, r.Delete(ctx, created.UUID), repository.ErrNotFound)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testListAll(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		created, err := r.Insert(ctx, task.WithTitle(strPtr(fmt.Sprintf("Task %d", i))), task.WithCompleted(i%2 == 0))
		require.NoError(t, err)
		ids = append(ids, created.UUID)
	}

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, tk := range all {
		assert.Equal(t, ids[i], tk.UUID)
	}
}

func testListFilter(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	task1, err := r.Insert(ctx, task.WithTitle(strPtr("Task 1")))
	require.NoError(t, err)
	task2, err := r.Insert(ctx, task.WithTitle(strPtr("Task 2")), task.WithCompleted(true))
	require.NoError(t, err)
	task3, err := r.Insert(ctx, task.WithTitle(strPtr("Task 3")), task.WithCompleted(true))
	require.NoError(t, err)

	done, err := r.List(ctx, repository.ListParams{Completed: boolPtr(true), PageSize: 10, PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, done.TotalItems)
	assert.Equal(t, 1, done.TotalPages)
	require.Len(t, done.Items, 2)
	assert.Equal(t, task2.UUID, done.Items[0].UUID)
	assert.Equal(t, task3.UUID, done.Items[1].UUID)

	open, err := r.List(ctx, repository.ListParams{Completed: boolPtr(false), PageSize: 10, PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, open.TotalItems)
	require.Len(t, open.Items, 1)
	assert.Equal(t, task1.UUID, open.Items[0].UUID)

	all, err := r.List(ctx, repository.ListParams{PageSize: 10, PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalItems)
	assert.Len(t, all.Items, 3)
}

func testListPagination(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		created, err := r.Insert(ctx, task.WithTitle(strPtr(fmt.Sprintf("Task %d", i))))
		require.NoError(t, err)
		ids = append(ids, created.UUID)
	}

	page2, err := r.List(ctx, repository.ListParams{PageSize: 2, PageNumber: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page2.TotalItems)
	assert.Equal(t, 3, page2.TotalPages)
	assert.Equal(t, 2, page2.CurrentPage)
	assert.Equal(t, 2, page2.PageSize)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, ids[2], page2.Items[0].UUID)
	assert.Equal(t, ids[3], page2.Items[1].UUID)

	last, err := r.List(ctx, repository.ListParams{PageSize: 2, PageNumber: 3})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, ids[4], last.Items[0].UUID)

	_, err = r.List(ctx, repository.ListParams{PageSize: 2, PageNumber: 4})
	assert.ErrorIs(t, err, repository.ErrInvalidPage)

	_, err = r.List(ctx, repository.ListParams{PageSize: 2, PageNumber: 0})
	assert.ErrorIs(t, err, repository.ErrInvalidPage)

	_, err = r.List(ctx, repository.ListParams{PageSize: 0, PageNumber: 1})
	assert.ErrorIs(t, err, repository.ErrInvalidPageSize)
}

func testListHugePageSize(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.Insert(ctx, task.WithTitle(strPtr(fmt.Sprintf("Task %d", i))))
		require.NoError(t, err)
	}

	page, err := r.List(ctx, repository.ListParams{PageSize: math.MaxInt, PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Items, 2)

	_, err = r.List(ctx, repository.ListParams{PageSize: math.MaxInt, PageNumber: 2})
	assert.ErrorIs(t, err, repository.ErrInvalidPage)
}

func testListEmpty(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	page, err := r.List(ctx, repository.ListParams{PageSize: 10, PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Items)
}

func testConcurrentInsert(t *testing.T, r service.TaskRepository) {
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Insert(ctx, task.WithTitle(strPtr(fmt.Sprintf("Concurrent %d", i))))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
}
