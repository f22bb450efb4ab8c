package credential

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/strukta/sitegate/role"
)

func newHSManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "sitegate-test",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestMintParseRoundTrip(t *testing.T) {
	m := newHSManager(t)

	cred, err := m.Mint("u-42", role.ProjectManager, true, "", time.Minute)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := m.Parse(cred)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.SubjectID != "u-42" {
		t.Fatalf("subject = %q", claims.SubjectID)
	}
	if claims.Role != role.ProjectManager {
		t.Fatalf("role = %q", claims.Role)
	}
	if !claims.Embedded() {
		t.Fatal("expected embedded claim set")
	}
	if claims.IsActive == nil || !*claims.IsActive {
		t.Fatal("expected active flag")
	}
}

func TestReferenceCredentialIsNotEmbedded(t *testing.T) {
	m := newHSManager(t)

	cred, err := m.MintReference("u-7", time.Minute)
	if err != nil {
		t.Fatalf("mint reference failed: %v", err)
	}

	claims, err := m.Parse(cred)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Embedded() {
		t.Fatal("reference credential must not report embedded claims")
	}
	if claims.SubjectID != "u-7" {
		t.Fatalf("subject = %q", claims.SubjectID)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := newHSManager(t)

	for _, cred := range []string{"", "   ", "not-a-jws", "a.b.c"} {
		if _, err := m.Parse(cred); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) = %v, want ErrMalformed", cred, err)
		}
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := newHSManager(t)

	other, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("ffffffffffffffffffffffffffffffff"),
		Issuer:        "sitegate-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cred, err := other.Mint("u-1", role.Client, true, "co-9", time.Minute)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if _, err := m.Parse(cred); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse with wrong key = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := newHSManager(t)

	cred, err := m.Mint("u-1", role.CompanyOwner, true, "", time.Millisecond)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// leeway is 30s, so push well past it
	mShort, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "sitegate-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := mShort.Parse(cred); err == nil {
		t.Fatal("expected expired credential to be rejected")
	}
}

func TestEd25519KeyedVerification(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub},
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cred, err := m.Mint("u-9", role.TechnicalLead, true, "", time.Minute)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := m.Parse(cred)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Role != role.TechnicalLead {
		t.Fatalf("role = %q", claims.Role)
	}
}

func TestManagerConfigValidation(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: "rs512"}); err == nil {
		t.Fatal("unsupported signing method must fail")
	}
	if _, err := NewManager(Config{SigningMethod: MethodHS256}); err == nil {
		t.Fatal("hs256 without key must fail")
	}
	if _, err := NewManager(Config{SigningMethod: MethodEd25519}); err == nil {
		t.Fatal("ed25519 without verify material must fail")
	}
	if _, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("k"),
		Leeway:        5 * time.Minute,
	}); err == nil {
		t.Fatal("excessive leeway must fail")
	}
}
