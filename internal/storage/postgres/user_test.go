package postgres

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"taskmanager/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIntegration_SaveUser_And_Lookup_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	gotByEmail, err := st.UserByEmail(context.Background(), strings.ToUpper(u.Email))
	require.NoError(t, err)
	require.Equal(t, u.ID, gotByEmail.ID)
	require.Equal(t, tenantID, gotByEmail.TenantID)
	require.Equal(t, []string{"user"}, gotByEmail.Roles)
	require.Nil(t, gotByEmail.OTPHash)
	require.Nil(t, gotByEmail.OTPExpiresAt)

	gotByID, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, gotByID.Email)
}

func TestIntegration_SaveUser_DuplicateEmail(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	dup := *u
	dup.ID = uuid.New()
	dup.Email = strings.ToUpper(u.Email) // CITEXT: регистр не различается.

	err := st.SaveUser(context.Background(), &dup)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_UserByEmail_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_SetAndConsumeOTP(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	require.NoError(t, st.SetUserOTP(context.Background(), u.ID, "otp-hash", now.Add(5*time.Minute)))

	got, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OTPHash)
	require.Equal(t, "otp-hash", *got.OTPHash)

	// Неверный хэш не тратит код.
	ok, err := st.ConsumeUserOTP(context.Background(), u.ID, "wrong-hash", now)
	require.NoError(t, err)
	require.False(t, ok)

	// Верный хэш тратится ровно один раз.
	ok, err = st.ConsumeUserOTP(context.Background(), u.ID, "otp-hash", now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.ConsumeUserOTP(context.Background(), u.ID, "otp-hash", now)
	require.NoError(t, err)
	require.False(t, ok)

	got, err = st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Nil(t, got.OTPHash)
	require.Nil(t, got.OTPExpiresAt)
}

func TestIntegration_ConsumeOTP_Expired(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	require.NoError(t, st.SetUserOTP(context.Background(), u.ID, "otp-hash", now.Add(-time.Second)))

	// Срок истёк — даже верный хэш отклоняется.
	ok, err := st.ConsumeUserOTP(context.Background(), u.ID, "otp-hash", now)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIntegration_ConsumeOTP_ConcurrentSingleWinner(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tenantID := seedTenant(t, st)
	u := seedUser(t, st, tenantID)

	now := time.Now().UTC()
	require.NoError(t, st.SetUserOTP(context.Background(), u.ID, "otp-hash", now.Add(5*time.Minute)))

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.ConsumeUserOTP(context.Background(), u.ID, "otp-hash", now)
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
