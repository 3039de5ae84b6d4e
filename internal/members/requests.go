package members

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var emailRule = validation.Match(regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)).Error("must be a valid email address")

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *RegisterRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

// Validate checks that every field is present and the email is well formed.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, emailRule),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Name, validation.Required),
	)
}

// CreateRequest is the admin-invoked user creation payload.
type CreateRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Committee string `json:"committee"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	IsAdmin   bool   `json:"is_admin"`
}

func (r *CreateRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Committee = strings.TrimSpace(r.Committee)
	r.Role = strings.TrimSpace(r.Role)
	r.Name = strings.TrimSpace(r.Name)
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, emailRule),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Committee, validation.Required),
		validation.Field(&r.Role, validation.Required),
		validation.Field(&r.Name, validation.Required),
	)
}

// EditRequest is a partial profile change; nil fields are left untouched.
type EditRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Committee *string `json:"committee"`
	Role      *string `json:"role"`
	Name      *string `json:"name"`
}

func (r *EditRequest) normalize() {
	for _, field := range []*string{r.Email, r.Committee, r.Role, r.Name} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
}

func (r EditRequest) empty() bool {
	return r.Email == nil && r.Password == nil && r.Committee == nil && r.Role == nil && r.Name == nil
}

// Validate rejects supplied-but-blank fields.
func (r EditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, emailRule),
		validation.Field(&r.Password, validation.NilOrNotEmpty),
		validation.Field(&r.Committee, validation.NilOrNotEmpty),
		validation.Field(&r.Role, validation.NilOrNotEmpty),
		validation.Field(&r.Name, validation.NilOrNotEmpty),
	)
}
