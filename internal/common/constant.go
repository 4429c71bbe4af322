package common

// Cookie names carrying the session tokens.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// MaxRecentViews is how many viewed recipes are remembered per user.
const MaxRecentViews = 3

// DefaultSearchLimit is the number of results requested from the external
// source when the caller does not ask for a specific amount.
const DefaultSearchLimit = 5
