// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Role     string `json:"role"     validate:"omitempty,oneof=regular provider"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}

type PrincipalResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is the body of a login or registration. The token itself
// travels only in the HTTP-only cookie.
type SessionResponse struct {
	Principal PrincipalResponse `json:"principal"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func toSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		Principal: toPrincipalResponse(s.Principal),
		ExpiresAt: s.ExpiresAt,
	}
}

func toPrincipalResponse(p *principal.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
	}
}
