package utils

import "testing"

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	const plain = "s3cret-password"
	hash, err := HashPassword(plain, 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == plain {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword(hash, plain) {
		t.Fatal("VerifyPassword rejected the correct password")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatal("VerifyPassword accepted a wrong password")
	}
}

func TestHashPasswordDifferentSalts(t *testing.T) {
	a, err := HashPassword("same", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("same", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical; salt missing")
	}
}
