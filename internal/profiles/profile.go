package profiles

import (
	"errors"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrNotFound indicates the store holds no profile document for the key.
	ErrNotFound = errors.New("profiles: profile not found")
	// ErrInvalidUID indicates the profile key is empty or exceeds storage bounds.
	ErrInvalidUID = errors.New("profiles: invalid uid")
)

// Profile is the per-member document keyed by the identity provider account id.
type Profile struct {
	UID          string    `gorm:"column:uid;primaryKey;size:190;not null" firestore:"-" json:"id"`
	Email        string    `gorm:"column:email;size:320;not null;default:''" firestore:"email" json:"email"`
	Name         string    `gorm:"column:name;size:320;not null;default:''" firestore:"name" json:"name"`
	Role         string    `gorm:"column:role;size:64;not null;default:''" firestore:"role,omitempty" json:"role,omitempty"`
	Committee    string    `gorm:"column:committee;size:64;not null;default:''" firestore:"committee,omitempty" json:"committee,omitempty"`
	Rank         string    `gorm:"column:rank;size:32;not null;default:''" firestore:"rank,omitempty" json:"rank,omitempty"`
	MemoTokens   int       `gorm:"column:memo_tokens;not null;default:0" firestore:"memo_tokens" json:"memo_tokens"`
	Points       int       `gorm:"column:points;not null;default:0" firestore:"points" json:"points"`
	PasswordHash string    `gorm:"column:password_hash;size:100;not null;default:''" firestore:"password_hash,omitempty" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" firestore:"-" json:"-"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" firestore:"-" json:"-"`
}

// TableName provides the explicit table binding for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// Update is a partial profile change; nil fields are left untouched.
type Update struct {
	Email        *string
	Name         *string
	Role         *string
	Committee    *string
	PasswordHash *string
}

// IsEmpty reports whether the update carries no fields.
func (u Update) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Fields returns the supplied fields keyed by their document field names,
// which are also the column names of the SQL table.
func (u Update) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Email != nil {
		fields["email"] = *u.Email
	}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Role != nil {
		fields["role"] = *u.Role
	}
	if u.Committee != nil {
		fields["committee"] = *u.Committee
	}
	if u.PasswordHash != nil {
		fields["password_hash"] = *u.PasswordHash
	}
	return fields
}

// ValidateUID trims and checks a document key.
func ValidateUID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidUID
	}
	if len(trimmed) > maxIdentifierLength {
		return "", ErrInvalidUID
	}
	return trimmed, nil
}
