package auth

import (
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenPayload captures the data available when minting a session JWT.
type SessionTokenPayload struct {
	SessionID string
	UserID    int64
	Role      enums.UserRole
}

// SessionTokenClaims represents the typed JWT issued to browsers. The registered
// jti claim carries the session id that keys server-side state.
type SessionTokenClaims struct {
	UserID int64          `json:"user_id"`
	Role   enums.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SessionID returns the jti claim.
func (c *SessionTokenClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
