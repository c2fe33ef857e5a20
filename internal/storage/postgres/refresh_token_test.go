package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedRefreshToken(t *testing.T, st *Storage, userID uuid.UUID, hash string, expiresAt time.Time) *models.RefreshToken {
	t.Helper()
	now := time.Now().UTC()
	tok := &models.RefreshToken{
		TokenHash: hash,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, st.SaveRefreshToken(context.Background(), tok))
	return tok
}

func TestIntegration_SaveRefreshToken_And_Lookup(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	seedRefreshToken(t, st, u.ID, "hash-1", now.Add(time.Hour))

	got, err := st.RefreshTokenByHash(context.Background(), "hash-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)
	require.Nil(t, got.RevokedAt)
	require.True(t, got.Active(now))
}

func TestIntegration_SaveRefreshToken_DuplicateHash(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	seedRefreshToken(t, st, u.ID, "hash-dup", now.Add(time.Hour))

	err := st.SaveRefreshToken(context.Background(), &models.RefreshToken{
		TokenHash: "hash-dup",
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_RevokeIfActive_States(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	seedRefreshToken(t, st, u.ID, "hash-rev", now.Add(time.Hour))

	// Первый отзыв выигрывает.
	ok, err := st.RevokeRefreshTokenIfActive(context.Background(), "hash-rev", now)
	require.NoError(t, err)
	require.True(t, ok)

	// Повторный отзыв — уже отозван, без ошибки.
	ok, err = st.RevokeRefreshTokenIfActive(context.Background(), "hash-rev", now)
	require.NoError(t, err)
	require.False(t, ok)

	// Неизвестный хэш — ErrNotFound.
	_, err = st.RevokeRefreshTokenIfActive(context.Background(), "hash-missing", now)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := st.RefreshTokenByHash(context.Background(), "hash-rev")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.False(t, got.Active(now))
}

// Центральный инвариант ротации: при конкурентном отзыве одного токена
// ровно один вызов наблюдает активную запись.
func TestIntegration_RevokeIfActive_ConcurrentSingleWinner(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	seedRefreshToken(t, st, u.ID, "hash-race", now.Add(time.Hour))

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.RevokeRefreshTokenIfActive(context.Background(), "hash-race", time.Now().UTC())
			require.NoError(t, err)
			results <- ok
		}()
	}

	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	require.Equal(t, 1, wins)
}

func TestIntegration_DeleteExpiredTokens(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	seedRefreshToken(t, st, u.ID, "hash-live", now.Add(time.Hour))
	seedRefreshToken(t, st, u.ID, "hash-dead", now.Add(-time.Hour))

	require.NoError(t, st.DeleteExpiredTokens(context.Background(), now))

	_, err := st.RefreshTokenByHash(context.Background(), "hash-live")
	require.NoError(t, err)

	_, err = st.RefreshTokenByHash(context.Background(), "hash-dead")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
