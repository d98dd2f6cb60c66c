package auth

import (
	"encoding/base64"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(secret string) *Service {
	return &Service{
		Cfg: &Config{
			SessionSecret:     secret,
			SessionTTLHours:   720,
			SignupBonusEnergy: 100,
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService("test-secret")
	userID := uuid.New()

	token := svc.signToken(userID, time.Now().Add(time.Hour))

	parsed, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenExpired(t *testing.T) {
	svc := newTestService("test-secret")

	token := svc.signToken(uuid.New(), time.Now().Add(-time.Minute))

	_, err := svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := newTestService("secret-a")
	verifier := newTestService("secret-b")

	token := issuer.signToken(uuid.New(), time.Now().Add(time.Hour))

	_, err := verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenTampered(t *testing.T) {
	svc := newTestService("test-secret")
	victim := uuid.New()
	attacker := uuid.New()

	token := svc.signToken(victim, time.Now().Add(time.Hour))

	// подмена user id в payload без перевыпуска подписи
	raw, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)
	tampered := base64.URLEncoding.EncodeToString(
		[]byte(attacker.String() + string(raw[len(victim.String()):])))

	_, err = svc.ValidateToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	svc := newTestService("test-secret")

	for _, token := range []string{"", "not-base64!!!", base64.URLEncoding.EncodeToString([]byte("a|b"))} {
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}
