package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	"github.com/lifecode-app/lifecode-server/internal/ports/repository"
	"github.com/lifecode-app/lifecode-server/internal/ports/service"
)

// ErrInvalidToken токен сессии не прошёл проверку
var ErrInvalidToken = errors.New("invalid session token")

// Config параметры сессий и бонуса регистрации
type Config struct {
	SessionSecret     string `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTLHours   int    `envconfig:"SESSION_TTL_HOURS" default:"720"`
	SignupBonusEnergy int64  `envconfig:"SIGNUP_BONUS_ENERGY" default:"100"`
}

// Service аутентификация: email OTP через внешний identity-провайдер,
// обмен его access token на внутреннюю HMAC-подписанную сессию
type Service struct {
	Cfg      *Config
	UserRepo repository.IUserRepo
	TxRepo   repository.ITransactionRepo
	Identity service.IIdentityService
	Log      *slog.Logger
}

// New создаёт сервис аутентификации
func New(
	cfg *Config,
	userRepo repository.IUserRepo,
	txRepo repository.ITransactionRepo,
	identity service.IIdentityService,
	log *slog.Logger,
) *Service {
	return &Service{
		Cfg:      cfg,
		UserRepo: userRepo,
		TxRepo:   txRepo,
		Identity: identity,
		Log:      log,
	}
}

// SendOTP запрашивает отправку одноразового кода на email
func (s *Service) SendOTP(ctx context.Context, email string) error {
	if err := s.Identity.SendOTP(ctx, email); err != nil {
		s.Log.Error("failed to send otp", "error", err)
		return err
	}
	s.Log.Info("otp sent")
	return nil
}

// Session результат обмена кода на сессию
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// VerifyAndCreateSession проверяет код у провайдера, находит или
// создаёт локального пользователя (с бонусом регистрации) и выдаёт
// внутренний токен сессии
func (s *Service) VerifyAndCreateSession(ctx context.Context, email string, code string) (*Session, error) {
	accessToken, err := s.Identity.VerifyOTP(ctx, email, code)
	if err != nil {
		return nil, fmt.Errorf("otp verification failed: %w", err)
	}

	identityUser, err := s.Identity.GetUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity user: %w", err)
	}

	user, err := s.findOrCreateUser(ctx, identityUser.Email)
	if err != nil {
		return nil, err
	}

	if err := s.UserRepo.UpdateLastSeen(ctx, user.ID); err != nil {
		s.Log.Warn("failed to update last seen", "error", err, "user_id", user.ID)
	}

	expiresAt := time.Now().Add(time.Duration(s.Cfg.SessionTTLHours) * time.Hour)
	token := s.signToken(user.ID, expiresAt)

	s.Log.Info("session created", "user_id", user.ID)
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// findOrCreateUser локальный пользователь по email; новый получает
// бонус регистрации со строкой леджера
func (s *Service) findOrCreateUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.UserRepo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	user = &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Energy:    0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.Cfg.SignupBonusEnergy > 0 {
		err := s.UserRepo.WithTransaction(ctx, func(txCtx context.Context, tx persistence.Transaction) error {
			if err := s.UserRepo.CreditEnergyTx(txCtx, tx, user.ID, s.Cfg.SignupBonusEnergy); err != nil {
				return err
			}
			return s.TxRepo.CreateTx(txCtx, tx, &domain.Transaction{
				ID:          uuid.New(),
				UserID:      user.ID,
				Delta:       s.Cfg.SignupBonusEnergy,
				Reason:      domain.ReasonSignupBonus,
				Description: "signup bonus",
				CreatedAt:   time.Now(),
			})
		})
		if err != nil {
			s.Log.Error("failed to credit signup bonus", "error", err, "user_id", user.ID)
		} else {
			user.Energy = s.Cfg.SignupBonusEnergy
		}
	}

	s.Log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// signToken формат: base64(userID|expiresUnix|hex(hmac-sha256))
func (s *Service) signToken(userID uuid.UUID, expiresAt time.Time) string {
	payload := fmt.Sprintf("%s|%d", userID, expiresAt.Unix())
	mac := hmac.New(sha256.New, []byte(s.Cfg.SessionSecret))
	mac.Write([]byte(payload))
	signed := payload + "|" + hex.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(signed))
}

// ValidateToken проверяет подпись и срок токена, возвращает user id
func (s *Service) ValidateToken(token string) (uuid.UUID, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return uuid.Nil, ErrInvalidToken
	}

	payload := parts[0] + "|" + parts[1]
	mac := hmac.New(sha256.New, []byte(s.Cfg.SessionSecret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return uuid.Nil, ErrInvalidToken
	}

	expiresUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expiresUnix {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// GetUser возвращает пользователя по id (для middleware)
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.UserRepo.GetByID(ctx, userID)
}
