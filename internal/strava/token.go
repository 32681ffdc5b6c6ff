package strava

import "encoding/json"

// TokenPair represents the access/refresh token pair minted by Strava's token
// endpoint. The proxy holds no copy of it after the response is sent.
type TokenPair struct {
	// AccessToken is the short-lived bearer credential for data requests.
	AccessToken string `json:"access_token"`
	// RefreshToken obtains a new pair without re-authentication. Strava may
	// rotate it on every use; callers must persist the returned value, not
	// the one they sent.
	RefreshToken string `json:"refresh_token"`
	// TokenType is the token scheme, normally "Bearer".
	TokenType string `json:"token_type"`
	// ExpiresAt is the absolute expiry of the access token in epoch seconds.
	ExpiresAt int64 `json:"expires_at"`
	// ExpiresIn is the remaining lifetime of the access token in seconds.
	ExpiresIn int64 `json:"expires_in"`

	raw []byte
}

// parseTokenPair decodes a token endpoint success body, keeping the raw bytes
// so extra fields (e.g. the athlete summary on a code exchange) pass through
// to the caller unchanged.
func parseTokenPair(body []byte) (*TokenPair, error) {
	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, err
	}
	pair.raw = body
	return &pair, nil
}

// Raw returns the untouched upstream response body.
func (t *TokenPair) Raw() []byte {
	return t.raw
}
