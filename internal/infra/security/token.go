package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// SessionTokenPrefix marks bearer tokens issued by this service so they are
// recognisable in logs and rejected early when malformed.
const SessionTokenPrefix = "vrs_"

const sessionEntropy = 32

// SessionTokens issues opaque admin session tokens of the form vrs_<base64url>.
type SessionTokens struct{}

func (SessionTokens) NewToken() (string, error) {
	buf := make([]byte, sessionEntropy)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: token entropy: %w", err)
	}
	return SessionTokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// WellFormed reports whether token could have been produced by NewToken.
func (SessionTokens) WellFormed(token string) bool {
	body, ok := strings.CutPrefix(token, SessionTokenPrefix)
	if !ok {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil && len(raw) == sessionEntropy
}
