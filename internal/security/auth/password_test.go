package auth

import "testing"

func testParams() HashParams {
	return HashParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	ph := NewPasswordHasher(testParams())

	hash, err := ph.Hash("secret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "secret" {
		t.Fatalf("hash must not equal the plaintext")
	}

	ok, err := ph.Verify(hash, "secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected hash to verify against its own plaintext")
	}

	ok, err = ph.Verify(hash, "wrong")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ok {
		t.Fatalf("expected verification to fail for a different plaintext")
	}
}

func TestHashIsSalted(t *testing.T) {
	ph := NewPasswordHasher(testParams())

	first, err := ph.Hash("secret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := ph.Hash("secret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected different hashes for the same plaintext")
	}

	for _, h := range []string{first, second} {
		ok, err := ph.Verify(h, "secret")
		if err != nil || !ok {
			t.Fatalf("expected both hashes to verify, got ok=%v err=%v", ok, err)
		}
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	ph := NewPasswordHasher(testParams())

	if _, err := ph.Verify("not-a-hash", "secret"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
	if _, err := ph.Verify("$bcrypt$v=19$m=1,t=1,p=1$abc$def", "secret"); err == nil {
		t.Fatalf("expected error for foreign hash format")
	}
}
