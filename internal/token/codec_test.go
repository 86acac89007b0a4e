package token

import (
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("super-secret", "HS256", 15*time.Minute, 7*24*time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return codec
}

func TestNewCodec_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewCodec("", "HS256", time.Minute, time.Hour, time.Hour); err == nil {
		t.Fatalf("expected error for empty secret, got nil")
	}
	if _, err := NewCodec("k", "HS9000", time.Minute, time.Hour, time.Hour); err == nil {
		t.Fatalf("expected error for unknown algorithm, got nil")
	}
	if _, err := NewCodec("k", "RS256", time.Minute, time.Hour, time.Hour); err == nil {
		t.Fatalf("expected error for non-HMAC algorithm, got nil")
	}
}

func TestIssueAndVerify_AllKinds(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	subject := "alice@example.com"

	access, err := codec.IssueAccess(subject)
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	refresh, refreshExp, err := codec.IssueRefresh(subject)
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	reset, resetExp, err := codec.IssueReset(subject)
	if err != nil {
		t.Fatalf("IssueReset error: %v", err)
	}

	for kind, tok := range map[Kind]string{
		KindAccess:  access,
		KindRefresh: refresh,
		KindReset:   reset,
	} {
		got, err := codec.Verify(tok, kind)
		if err != nil {
			t.Fatalf("Verify(%s) error: %v", kind, err)
		}
		if got != subject {
			t.Fatalf("subject mismatch for %s: got %q want %q", kind, got, subject)
		}
	}

	if !refreshExp.After(time.Now().Add(6 * 24 * time.Hour)) {
		t.Fatalf("refresh expiry %v is not roughly 7 days out", refreshExp)
	}
	if !resetExp.After(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("reset expiry %v is not roughly 24 hours out", resetExp)
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	first, _, err := codec.IssueRefresh("u@example.com")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	second, _, err := codec.IssueRefresh("u@example.com")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	if first == second {
		t.Fatalf("two refresh tokens issued back to back are identical")
	}
}

func TestVerify_KindMismatch(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	access, err := codec.IssueAccess("u@example.com")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	refresh, _, err := codec.IssueRefresh("u@example.com")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	reset, _, err := codec.IssueReset("u@example.com")
	if err != nil {
		t.Fatalf("IssueReset error: %v", err)
	}

	cases := []struct {
		name     string
		token    string
		expected Kind
	}{
		{"access as refresh", access, KindRefresh},
		{"refresh as access", refresh, KindAccess},
		{"reset as access", reset, KindAccess},
		{"reset as refresh", reset, KindRefresh},
		{"access as reset", access, KindReset},
	}
	for _, tc := range cases {
		if _, err := codec.Verify(tc.token, tc.expected); err != ErrInvalidToken {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", tc.name, err)
		}
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec("secret", "HS256", -time.Second, -time.Second, -time.Second)
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}

	tok, err := codec.IssueAccess("u@example.com")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := codec.Verify(tok, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	other, err := NewCodec("other-secret", "HS256", 15*time.Minute, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}

	tok, err := codec.IssueAccess("u@example.com")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := other.Verify(tok, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	for _, tok := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := codec.Verify(tok, KindAccess); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	tok, err := codec.IssueAccess("u@example.com")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := codec.Verify(tampered, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}
