package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"taskmanager/internal/email"
	"taskmanager/internal/models"
	"taskmanager/internal/pkg/log"
	"taskmanager/internal/pkg/redact"
	"taskmanager/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Register регистрирует нового пользователя с привязкой к тенанту.
//
// Для роли admin tenantID необязателен: отсутствующий тенант создаётся
// (с переданным или сгенерированным идентификатором). Для остальных ролей
// тенант обязан существовать, иначе ErrInvalidTenant. Регистрация не
// аутентифицирует — токены не выдаются. Приветственное письмо уходит
// фоном и не влияет на результат.
func (s *Service) Register(ctx context.Context, emailAddr, password, tenantID string, roles []string) (*models.User, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	normEmail, err := validateEmail(emailAddr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(roles) == 0 {
		roles = []string{RoleUser}
	}

	isAdmin := false
	for _, r := range roles {
		if r == RoleAdmin {
			isAdmin = true
			break
		}
	}

	if isAdmin {
		tenantID, err = s.ensureTenant(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		exists, err := s.storage.TenantExists(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			lg.Warn("register_unknown_tenant",
				slog.String("op", op),
				slog.String("tenant_id", tenantID),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidTenant)
		}
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		PasswordHash: hashedPassword,
		TenantID:     tenantID,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
		slog.String("tenant_id", tenantID),
	)

	// Доставка письма — best-effort, её неуспех не откатывает регистрацию.
	s.dispatchEmail(ctx, user.Email, "Welcome to "+s.cfg.SMTP.AppName,
		email.WelcomeBody(user.Email, tenantID, s.cfg.SMTP.AppName), "welcome")

	return user, nil
}

// ensureTenant возвращает идентификатор существующего тенанта либо создаёт
// новый (с переданным id или сгенерированным, если id пуст).
func (s *Service) ensureTenant(ctx context.Context, tenantID string) (string, error) {
	const op = "service.auth.ensureTenant"

	if tenantID == "" {
		tenantID = uuid.NewString()
	}

	exists, err := s.storage.TenantExists(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return tenantID, nil
	}

	tenant := &models.Tenant{
		ID:        tenantID,
		Name:      tenantID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.SaveTenant(ctx, tenant); err != nil {
		// Гонка двух admin-регистраций с одним id — тенант уже есть.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return tenantID, nil
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return tenantID, nil
}

// Login проверяет пароль и переводит сессию в состояние ожидания OTP.
//
// Пользователь не найден — ErrNotFound, пароль не совпал —
// ErrInvalidCredentials (коды различаются сознательно). На успех генерируется
// равномерный 6-значный код, его хэш сохраняется со сроком действия, а письмо
// с кодом уходит фоном — ответ не ждёт подтверждения доставки. Токены на
// этом шаге не выдаются.
func (s *Service) Login(ctx context.Context, emailAddr, password string) error {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	normEmail, err := validateEmail(emailAddr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("login_user_not_found",
				slog.String("op", op),
				slog.String("email", redact.Email(normEmail)),
			)
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		lg.Warn("login_bad_password",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := time.Now().UTC().Add(s.cfg.Auth.OTPTTL)
	if err := s.storage.SetUserOTP(ctx, user.ID, hashToken(otp), expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("otp_issued",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("otp", redact.OTP()),
	)

	// OTP уже сохранён; неуспех доставки не откатывает переход в OtpPending.
	s.dispatchEmail(ctx, user.Email, s.cfg.SMTP.AppName+" verification code",
		email.OTPBody(user.Email, otp, s.cfg.Auth.OTPTTL, s.cfg.SMTP.AppName), "otp")

	return nil
}

// VerifyOTP сверяет одноразовый код и выпускает первую пару токенов.
//
// Сверка и очистка кода выполняются одной атомарной операцией хранилища,
// поэтому один код нельзя потратить дважды даже конкурентно. Прежние
// refresh-токены здесь не отзываются — это начало новой цепочки.
func (s *Service) VerifyOTP(ctx context.Context, emailAddr, otp string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.VerifyOTP"

	lg := log.From(ctx)

	normEmail, err := validateEmail(emailAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.storage.ConsumeUserOTP(ctx, user.ID, hashToken(otp), time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		lg.Warn("otp_rejected",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidOTP)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("otp_verified",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return pair, user, nil
}

// Refresh обменивает пару (просроченный access, действующий refresh)
// на новую пару токенов.
//
// Личность восстанавливается из access-токена без проверки срока, но с
// полной проверкой подписи/issuer/audience. Отзыв старого refresh-токена
// и выпуск нового образуют ротацию: из N конкурентных вызовов с одним
// токеном ровно один получает новую пару, остальные — ErrInvalidRefreshToken.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	ident, err := s.parseExpiredAccessClaims(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if token.UserID != ident.UserID {
		lg.Warn("refresh_owner_mismatch",
			slog.String("op", op),
			slog.String("token_owner", token.UserID.String()),
			slog.String("subject", ident.UserID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	user, err := s.storage.UserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	hash := hashToken(refreshToken)

	// Условный UPDATE: ровно один из конкурентных вызовов получает true.
	revoked, err := s.storage.RevokeRefreshTokenIfActive(ctx, hash, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !revoked {
		lg.Warn("refresh_lost_rotation_race",
			slog.String("op", op),
			slog.String("user_id", token.UserID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	if err := s.cache.MarkRefreshRevoked(ctx, hash); err != nil {
		lg.Warn("refresh_cache_revoke_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("token_pair_rotated",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return pair, nil
}

// Logout отзывает refresh-токен и, если передан access-токен, помещает его
// в чёрный список до истечения срока.
//
// Операция идемпотентна: повторный отзыв уже отозванного токена — успех;
// неизвестный токен — ErrNotFound.
func (s *Service) Logout(ctx context.Context, refreshToken, accessToken string) error {
	const op = "service.auth.Logout"

	lg := log.From(ctx)

	if refreshToken == "" {
		return fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	now := time.Now().UTC()
	hash := hashToken(refreshToken)

	revoked, err := s.storage.RevokeRefreshTokenIfActive(ctx, hash, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.MarkRefreshRevoked(ctx, hash); err != nil {
		lg.Warn("logout_cache_revoke_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	if accessToken != "" {
		if _, expiresAt, err := s.validateAccessToken(accessToken); err == nil {
			if err := s.cache.BlacklistAccessToken(ctx, accessToken, expiresAt); err != nil {
				lg.Warn("logout_blacklist_failed",
					slog.String("op", op),
					slog.String("err", err.Error()),
				)
			}
		}
	}

	lg.Info("logged_out",
		slog.String("op", op),
		slog.Bool("was_active", revoked),
	)

	return nil
}

// ValidateAccessToken проверяет bearer-токен для транспортного слоя:
// сперва быстрый отсев по чёрному списку, затем строгая валидация.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (Identity, error) {
	const op = "service.auth.ValidateAccessToken"

	lg := log.From(ctx)

	blacklisted, err := s.cache.IsAccessTokenBlacklisted(ctx, accessToken)
	if err != nil {
		lg.Warn("blacklist_check_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	} else if blacklisted {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
	}

	ident, _, err := s.validateAccessToken(accessToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	return ident, nil
}

// issueTokenPair выпускает новую пару access+refresh токенов.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    plain,
		AccessExpiresAt: now.Add(s.cfg.Auth.AccessTokenTTL),
	}, nil
}

// dispatchEmail отправляет письмо в отдельной горутине с собственным
// логированием ошибок: вызывающий поток не ждёт результата доставки.
func (s *Service) dispatchEmail(ctx context.Context, to, subject, body, kind string) {
	lg := log.From(ctx)

	go func() {
		if err := s.sender.Send(to, subject, body); err != nil {
			lg.Error("email_dispatch_failed",
				slog.String("kind", kind),
				slog.String("to", redact.Email(to)),
				slog.String("err", err.Error()),
			)
			return
		}

		lg.Info("email_dispatched",
			slog.String("kind", kind),
			slog.String("to", redact.Email(to)),
		)
	}()
}

// generateOTP возвращает равномерный 6-значный код из [100000, 999999].
func generateOTP() (string, error) {
	const op = "service.auth.generateOTP"

	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и нормализует регистр.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	emailAddr := strings.TrimSpace(raw)
	if emailAddr == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(emailAddr), nil
}

// validatePassword проверяет минимальные требования к паролю:
// длина >= 8, хотя бы одна строчная, заглавная и цифра.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !(hasLower && hasUpper && hasDigit) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
