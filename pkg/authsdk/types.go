package authsdk

import "time"

// ============================================================================
// Requests
// ============================================================================

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Role is optional. Only STUDENT, PARENT and TEACHER may self-register.
	Role string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest optionally names a refresh token to revoke alongside the
// bearer access token.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type RevokeTokenRequest struct {
	Token string `json:"token"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ============================================================================
// Responses
// ============================================================================

// User is the public view of a user; it never carries the password hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by register, login and the OIDC callback.
type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type UserResponse struct {
	User User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// TokenStatsResponse describes the revocation store. LastSweepTime is nil
// until the sweeper has run once.
type TokenStatsResponse struct {
	Count         int        `json:"count"`
	LastSweepTime *time.Time `json:"lastSweepTime"`
}

type ClearBlacklistResponse struct {
	ClearedCount int `json:"clearedCount"`
}

type RevokeTokenResponse struct {
	Revoked bool `json:"revoked"`
}

// ============================================================================
// Health
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database   string `json:"database"`
	Revocation string `json:"revocation"`
	Signer     string `json:"signer"`
}
