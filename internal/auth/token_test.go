package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	raw, issued, err := iss.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := iss.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.SessionID == "" || claims.SessionID != issued.SessionID {
		t.Fatalf("session id not carried: %q vs %q", claims.SessionID, issued.SessionID)
	}
}

func TestEachLoginGetsNewSession(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	_, a, _ := iss.Issue(1)
	_, b, _ := iss.Issue(1)
	if a.SessionID == b.SessionID {
		t.Fatalf("expected distinct session ids")
	}
}

func TestParseRejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	good, _, _ := iss.Issue(1)

	expired := NewIssuer("secret", time.Minute)
	expired.clock = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, _ := expired.Issue(1)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "s"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"wrong secret": func() string { s, _, _ := NewIssuer("other", time.Hour).Issue(1); return s }(),
		"expired":      old,
		"alg none":     none,
		"garbage":      "not.a.token",
		"tampered":     good + "x",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := iss.Parse(raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
