package util

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// redactedTokenFields lists JSON fields whose values must never reach a log
// line. Matches the token endpoint response and our own request bodies.
var redactedTokenFields = []string{"access_token", "refresh_token", "client_secret", "code"}

// MaskToken shortens a credential for logging, keeping only a short prefix
// and suffix. Values of eight characters or fewer are fully masked.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactTokenJSON returns a copy of the JSON payload with token and secret
// fields replaced by "[REDACTED]". Non-JSON input is returned as a fixed
// placeholder rather than risking a leak.
func RedactTokenJSON(payload []byte) string {
	if !gjson.ValidBytes(payload) {
		return "[unparseable payload redacted]"
	}
	out := payload
	for _, field := range redactedTokenFields {
		if gjson.GetBytes(out, field).Exists() {
			if redacted, err := sjson.SetBytes(out, field, "[REDACTED]"); err == nil {
				out = redacted
			}
		}
	}
	return string(out)
}

// MaskAuthorizationHeader preserves the auth scheme prefix (e.g. "Bearer ")
// and masks only the credential part.
func MaskAuthorizationHeader(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if idx := strings.IndexByte(value, ' '); idx > 0 {
		return value[:idx+1] + MaskToken(value[idx+1:])
	}
	return MaskToken(value)
}
