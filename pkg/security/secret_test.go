package security

import (
	"strings"
	"testing"

	"github.com/scanbill/pos-client/pkg/config"
)

// Low-cost parameters keep the tests fast.
var testCfg = config.SecretConfig{
	ArgonMemoryKB:    1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifySecret(t *testing.T) {
	digest, err := HashSecret("hunter2", testCfg)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$") {
		t.Fatalf("unexpected digest format %q", digest)
	}

	ok, err := VerifySecret("hunter2", digest)
	if err != nil {
		t.Fatalf("verify secret: %v", err)
	}
	if !ok {
		t.Fatal("expected matching secret to verify")
	}

	ok, err = VerifySecret("wrong", digest)
	if err != nil {
		t.Fatalf("verify wrong secret: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched secret to fail")
	}
}

func TestHashSecretRejectsEmpty(t *testing.T) {
	if _, err := HashSecret("", testCfg); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestHashSecretUniqueSalts(t *testing.T) {
	first, err := HashSecret("hunter2", testCfg)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	second, err := HashSecret("hunter2", testCfg)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct digests")
	}
}

func TestHashSecretClampsOutOfRangeParams(t *testing.T) {
	hostile := config.SecretConfig{
		ArgonMemoryKB:    -1,
		ArgonTime:        -5,
		ArgonParallelism: -3,
		ArgonSaltLen:     -8,
		ArgonKeyLen:      1 << 30,
	}

	digest, err := HashSecret("hunter2", hostile)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	if !strings.Contains(digest, "m=8,t=1,p=1") {
		t.Fatalf("expected clamped parameters in digest, got %q", digest)
	}

	ok, err := VerifySecret("hunter2", digest)
	if err != nil {
		t.Fatalf("verify secret: %v", err)
	}
	if !ok {
		t.Fatal("expected clamped digest to verify")
	}
}

func TestVerifySecretMalformedDigest(t *testing.T) {
	cases := []string{
		"",
		"not-a-digest",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=bad$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$!!",
	}
	for _, encoded := range cases {
		if _, err := VerifySecret("x", encoded); err == nil {
			t.Fatalf("expected malformed digest error for %q", encoded)
		}
	}
}
