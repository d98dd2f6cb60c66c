package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionReason причина движения энергии
type TransactionReason string

const (
	ReasonPurchase     TransactionReason = "purchase"      // покупка через Stripe
	ReasonReportCharge TransactionReason = "report_charge" // списание за генерацию отчёта
	ReasonRedemption   TransactionReason = "redemption"    // активация кода
	ReasonSignupBonus  TransactionReason = "signup_bonus"
	ReasonAdminAdjust  TransactionReason = "admin_adjust"
)

// Transaction строка леджера энергии. Баланс мутируется только вместе
// с записью транзакции; idempotency_key уникален на уровне БД
// (вместо поиска подстроки в description у исходника).
type Transaction struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	UserID         uuid.UUID         `json:"user_id" db:"user_id"`
	Delta          int64             `json:"delta" db:"delta"` // положительное - начисление
	Reason         TransactionReason `json:"reason" db:"reason"`
	Description    string            `json:"description" db:"description"`
	ReferenceID    *uuid.UUID        `json:"reference_id,omitempty" db:"reference_id"` // job или archive
	IdempotencyKey *string           `json:"idempotency_key,omitempty" db:"idempotency_key"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// RedemptionCode код пополнения энергии
type RedemptionCode struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	Energy    int64      `json:"energy" db:"energy"`
	MaxUses   int        `json:"max_uses" db:"max_uses"`
	UsedCount int        `json:"used_count" db:"used_count"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsUsable код активен: не исчерпан и не истёк
func (c *RedemptionCode) IsUsable(now time.Time) bool {
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
