package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/memberhub/backend/internal/auth"
)

var (
	// ErrEmailExists indicates another account already uses the email address.
	ErrEmailExists = fmt.Errorf("accounts: email in use: %w", auth.ErrAccountExists)
	// ErrAccountNotFound indicates no account exists for the uid.
	ErrAccountNotFound = errors.New("accounts: account not found")
	// ErrInvalidAccount indicates missing email or password on creation.
	ErrInvalidAccount = errors.New("accounts: email and password required")
)

// Account is a locally managed identity provider account.
type Account struct {
	UID                     string    `gorm:"column:uid;primaryKey;size:190;not null"`
	Email                   string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	DisplayName             string    `gorm:"column:display_name;size:320;not null;default:''"`
	PasswordHash            string    `gorm:"column:password_hash;size:100;not null"`
	CustomClaimsJSON        string    `gorm:"column:custom_claims;type:text;not null;default:'{}'"`
	TokensValidAfterSeconds int64     `gorm:"column:tokens_valid_after_s;not null;default:0"`
	CreatedAt               time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Account) TableName() string {
	return "accounts"
}

// CustomClaims decodes the stored custom claims; malformed JSON yields no claims.
func (a Account) CustomClaims() map[string]interface{} {
	claims := map[string]interface{}{}
	if a.CustomClaimsJSON == "" {
		return claims
	}
	if err := json.Unmarshal([]byte(a.CustomClaimsJSON), &claims); err != nil {
		return map[string]interface{}{}
	}
	return claims
}
