package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAdminPasswordHasher(t *testing.T) {
	h := AdminPasswordHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("rahasia-villa")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Compare(hash, "rahasia-villa"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := h.Compare(hash, "salah"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if h.NeedsRehash(hash) {
		t.Fatal("fresh hash should not need rehash")
	}
	if !(AdminPasswordHasher{Cost: bcrypt.MinCost + 1}).NeedsRehash(hash) {
		t.Fatal("cheaper hash should be upgraded")
	}
	if !h.NeedsRehash("not-a-hash") {
		t.Fatal("garbage hash should be replaced")
	}
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("long password: %v", err)
	}
}

func TestSessionTokens(t *testing.T) {
	var g SessionTokens
	a, err := g.NewToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, _ := g.NewToken()
	if a == b {
		t.Fatal("tokens repeat")
	}
	if !strings.HasPrefix(a, SessionTokenPrefix) || !g.WellFormed(a) {
		t.Fatalf("token %q not well formed", a)
	}
	for _, bad := range []string{"", "vrs_", "abc", "vrs_!!!!", SessionTokenPrefix + "c2hvcnQ"} {
		if g.WellFormed(bad) {
			t.Errorf("%q accepted", bad)
		}
	}
}
