package auth

// Package auth contains domain-level types for BengkeLink accounts and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents the kind of account a user holds.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTechnician Role = "technician"
	RoleWorkshop   Role = "workshop"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleCustomer, RoleTechnician, RoleWorkshop}

// ParseRole returns the role named by s and whether it is recognized.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleTechnician:
		return RoleTechnician, true
	case RoleWorkshop:
		return RoleWorkshop, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Label is the Indonesian display label for the role.
func (r Role) Label() string {
	switch r {
	case RoleWorkshop:
		return "Bengkel"
	case RoleTechnician:
		return "Teknisi"
	default:
		return "Pelanggan"
	}
}

// Session is the identity provider's proof of authentication for one account.
// The service stores it on behalf of a client scope but never interprets the tokens itself.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionEventType names a session change notification.
type SessionEventType string

const (
	EventSignedIn       SessionEventType = "SIGNED_IN"
	EventSignedOut      SessionEventType = "SIGNED_OUT"
	EventTokenRefreshed SessionEventType = "TOKEN_REFRESHED"
)

// SessionEvent is delivered to session change subscribers.
// Session is set only when the source already holds it; otherwise subscribers read it.
type SessionEvent struct {
	Type    SessionEventType
	Session *Session
}

// Claims are the verified contents of an access token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}
