package booking

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Ambiguous characters (0/O, 1/I) are left out so references read well over the phone.
const referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const referenceTokenLen = 6

var referencePattern = regexp.MustCompile(`^VIL-\d{8}-[2-9A-HJ-NP-Z]{6}$`)

// ReferenceGenerator produces human-shareable booking references such as
// VIL-20250601-K7Q2ZD. Uniqueness is enforced by the store; callers retry on
// ErrDuplicateReference.
type ReferenceGenerator struct {
	Entropy io.Reader
}

func (g ReferenceGenerator) Next(now time.Time) (string, error) {
	src := g.Entropy
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, referenceTokenLen)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("booking: reference entropy: %w", err)
	}
	token := make([]byte, referenceTokenLen)
	for i, b := range buf {
		token[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("VIL-%s-%s", now.UTC().Format("20060102"), token), nil
}

func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}
