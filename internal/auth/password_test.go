package auth

import "testing"

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher()

	hash, err := hasher.Hash("password1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "password1" {
		t.Fatal("hash equals plaintext")
	}

	if !hasher.Verify("password1", hash) {
		t.Fatal("Verify rejected the original password")
	}
	if hasher.Verify("password2", hash) {
		t.Fatal("Verify accepted a different password")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher()

	first, err := hasher.Hash("password1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("password1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher()
	if hasher.Verify("password1", "not-a-bcrypt-hash") {
		t.Fatal("Verify accepted a malformed hash")
	}
}
