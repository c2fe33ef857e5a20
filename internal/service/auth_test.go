package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskmanager/internal/cache"
	"taskmanager/internal/config"
	"taskmanager/internal/models"
	"taskmanager/internal/storage"
	"taskmanager/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testCfg() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "unit-secret",
			AccessTokenTTL:  30 * time.Second,
			RefreshTokenTTL: 24 * time.Hour,
			OTPTTL:          5 * time.Minute,
			Issuer:          "taskmanager",
			Audience:        []string{"taskmanager-clients"},
		},
		SMTP: config.SMTPConfig{AppName: "TaskManager"},
		Chat: config.ChatConfig{HistoryLimit: 10},
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *mocks.MockSender, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	sender := mocks.NewMockSender(ctrl)
	chatClient := mocks.NewMockClient(ctrl)
	svc := New(st, cache.NewNoopCache(), sender, chatClient, testCfg())
	return svc, st, sender, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestRegister_AdminCreatesTenant(t *testing.T) {
	t.Parallel()

	svc, st, sender, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	sent := make(chan struct{})
	st.EXPECT().TenantExists(gomock.Any(), "acme").Return(false, nil)
	st.EXPECT().SaveTenant(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tn *models.Tenant) error {
			require.Equal(t, "acme", tn.ID)
			return nil
		})
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *models.User) error {
			require.Equal(t, "admin@example.com", u.Email)
			require.Equal(t, "acme", u.TenantID)
			require.Contains(t, u.Roles, RoleAdmin)
			return nil
		})
	sender.EXPECT().Send("admin@example.com", gomock.Any(), gomock.Any()).DoAndReturn(
		func(_, _, _ string) error {
			close(sent)
			return nil
		})

	user, err := svc.Register(ctx, "Admin@Example.com", "Abcdef12", "acme", []string{RoleAdmin})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("welcome email was not dispatched")
	}
}

func TestRegister_UnknownTenant(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().TenantExists(gomock.Any(), "does-not-exist").Return(false, nil)

	_, err := svc.Register(context.Background(), "user@example.com", "Abcdef12", "does-not-exist", []string{RoleUser})
	require.ErrorIs(t, err, ErrInvalidTenant)
}

func TestRegister_EmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().TenantExists(gomock.Any(), "acme").Return(true, nil)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := svc.Register(context.Background(), "user@example.com", "Abcdef12", "acme", nil)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestRegister_WeakPassword(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Register(context.Background(), "user@example.com", "short", "acme", nil)
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestLogin_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)

	err := svc.Login(context.Background(), "ghost@example.com", "Abcdef12")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, "Abcdef12"),
		TenantID:     "acme",
		Roles:        []string{RoleUser},
	}
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	err := svc.Login(context.Background(), "user@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_IssuesOTPAndDispatchesEmail(t *testing.T) {
	t.Parallel()

	svc, st, sender, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, "Abcdef12"),
		TenantID:     "acme",
		Roles:        []string{RoleUser},
	}

	sent := make(chan struct{})
	var storedHash string
	var storedExpiry time.Time

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)
	st.EXPECT().SetUserOTP(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, otpHash string, expiresAt time.Time) error {
			storedHash = otpHash
			storedExpiry = expiresAt
			return nil
		})
	sender.EXPECT().Send("user@example.com", gomock.Any(), gomock.Any()).DoAndReturn(
		func(_, _, _ string) error {
			close(sent)
			return nil
		})

	before := time.Now().UTC()
	require.NoError(t, svc.Login(context.Background(), "user@example.com", "Abcdef12"))

	require.NotEmpty(t, storedHash)
	require.WithinDuration(t, before.Add(5*time.Minute), storedExpiry, 5*time.Second)

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("otp email was not dispatched")
	}
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "user@example.com", TenantID: "acme", Roles: []string{RoleUser}}

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)
	st.EXPECT().ConsumeUserOTP(gomock.Any(), user.ID, hashToken("000000"), gomock.Any()).Return(false, nil)

	_, _, err := svc.VerifyOTP(context.Background(), "user@example.com", "000000")
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		TenantID: "acme",
		Roles:    []string{RoleUser, "reporter"},
	}

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)
	st.EXPECT().ConsumeUserOTP(gomock.Any(), user.ID, hashToken("123456"), gomock.Any()).Return(true, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	pair, got, err := svc.VerifyOTP(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// Выданный access-токен несёт исходные subject, тенант и роли.
	ident, _, err := svc.validateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, ident.UserID)
	require.Equal(t, "acme", ident.TenantID)
	require.ElementsMatch(t, []string{RoleUser, "reporter"}, ident.Roles)
}

func TestVerifyOTP_SingleUse(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "user@example.com", TenantID: "acme", Roles: []string{RoleUser}}

	gomock.InOrder(
		st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil),
		st.EXPECT().ConsumeUserOTP(gomock.Any(), user.ID, hashToken("123456"), gomock.Any()).Return(true, nil),
		st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil),
		st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil),
		// Код уже очищен атомарным consume — второй вызов с тем же кодом промахивается.
		st.EXPECT().ConsumeUserOTP(gomock.Any(), user.ID, hashToken("123456"), gomock.Any()).Return(false, nil),
	)

	_, _, err := svc.VerifyOTP(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)

	_, _, err = svc.VerifyOTP(context.Background(), "user@example.com", "123456")
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestLogout_IdempotentOnRevokedToken(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Повторный отзыв уже отозванного токена — не ошибка.
	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), hashToken("some-refresh"), gomock.Any()).Return(false, nil)

	require.NoError(t, svc.Logout(context.Background(), "some-refresh", ""))
}

func TestLogout_UnknownToken(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, storage.ErrNotFound)

	err := svc.Logout(context.Background(), "unknown-refresh", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLogout_EmptyToken(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	err := svc.Logout(context.Background(), "", "")
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestGenerateOTP_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)
		require.GreaterOrEqual(t, otp, "100000")
		require.LessOrEqual(t, otp, "999999")
	}
}

func TestLogin_StorageFailure(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	boom := errors.New("connection reset")
	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, boom)

	err := svc.Login(context.Background(), "user@example.com", "Abcdef12")
	require.ErrorIs(t, err, boom)
}
