package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedTask(t *testing.T, st *Storage, tenantID string, userID uuid.UUID, title string, completed bool, priority models.TaskPriority) *models.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: "desc",
		DueTime:     now.Add(24 * time.Hour),
		IsCompleted: completed,
		Priority:    priority,
		TenantID:    tenantID,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, st.SaveTask(context.Background(), task))
	return task
}

func TestIntegration_Tasks_FilterSortPaginate(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	seedTask(t, st, tenantID, u.ID, "alpha report", false, models.PriorityLow)
	seedTask(t, st, tenantID, u.ID, "beta report", true, models.PriorityHigh)
	seedTask(t, st, tenantID, u.ID, "gamma cleanup", false, models.PriorityMedium)

	// Фильтр по подстроке заголовка.
	got, err := st.Tasks(context.Background(), tenantID, u.ID, models.TaskFilter{
		FilterOn: "title", FilterQuery: "report",
		SortBy: "title", Ascending: true,
		Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "alpha report", got[0].Title)
	require.Equal(t, "beta report", got[1].Title)

	// Сортировка по приоритету по убыванию.
	got, err = st.Tasks(context.Background(), tenantID, u.ID, models.TaskFilter{
		SortBy: "priority", Ascending: false,
		Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, models.PriorityHigh, got[0].Priority)

	// Пагинация.
	got, err = st.Tasks(context.Background(), tenantID, u.ID, models.TaskFilter{
		SortBy: "title", Ascending: true,
		Page: 2, PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestIntegration_Tasks_TenantIsolation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantA := seedTenant(t, st)
	tenantB := seedTenant(t, st)
	userA := seedUser(t, st, tenantA)
	userB := seedUser(t, st, tenantB)

	task := seedTask(t, st, tenantA, userA.ID, "private", false, models.PriorityLow)

	// Чужой тенант не видит задачу ни по id, ни в выборке.
	_, err := st.TaskByID(context.Background(), task.ID, userB.ID, tenantB)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := st.Tasks(context.Background(), tenantB, userB.ID, models.TaskFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Empty(t, got)

	ok, err := st.SetTaskCompleted(context.Background(), task.ID, userB.ID, tenantB, true)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIntegration_SetTaskCompleted_And_Dashboard(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	t1 := seedTask(t, st, tenantID, u.ID, "one", false, models.PriorityLow)
	seedTask(t, st, tenantID, u.ID, "two", false, models.PriorityLow)

	ok, err := st.SetTaskCompleted(context.Background(), t1.ID, u.ID, tenantID, true)
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := st.DashboardStats(context.Background(), tenantID)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalTasks)
	require.EqualValues(t, 1, stats.CompletedTasks)
	require.EqualValues(t, 1, stats.PendingTasks)
}

func TestIntegration_UpdateAndDeleteTask(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	task := seedTask(t, st, tenantID, u.ID, "draft", false, models.PriorityLow)

	task.Title = "final"
	task.Priority = models.PriorityHigh
	updated, err := st.UpdateTask(context.Background(), task)
	require.NoError(t, err)
	require.Equal(t, "final", updated.Title)
	require.Equal(t, models.PriorityHigh, updated.Priority)

	require.NoError(t, st.DeleteTask(context.Background(), task.ID, u.ID, tenantID))

	_, err = st.TaskByID(context.Background(), task.ID, u.ID, tenantID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = st.DeleteTask(context.Background(), task.ID, u.ID, tenantID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_ChatHistory_RecentWindow(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, st.SaveChatMessage(context.Background(), &models.ChatMessage{
			TenantID:  tenantID,
			UserID:    u.ID,
			Role:      models.ChatRoleUser,
			Message:   fmt.Sprintf("msg-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	// Последние 3 в хронологическом порядке.
	got, err := st.RecentChatMessages(context.Background(), tenantID, u.ID, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "msg-2", got[0].Message)
	require.Equal(t, "msg-4", got[2].Message)
}
