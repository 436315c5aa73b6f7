package domain

// TokenPair is what login, registration and refresh hand back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
