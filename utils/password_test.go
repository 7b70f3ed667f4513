package utils

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "secret" {
		t.Fatal("HashPassword() returned the plaintext")
	}
	if !CheckPassword(hash, "secret") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "Secret") {
		t.Error("CheckPassword() accepted a wrong password")
	}
	if CheckPassword("not-a-hash", "secret") {
		t.Error("CheckPassword() accepted a malformed hash")
	}
}

func TestLongPasswordsAreTruncated(t *testing.T) {
	long := strings.Repeat("a", 100)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, long) {
		t.Error("CheckPassword() rejected the long password")
	}
	// Only the first 72 bytes take part in the comparison.
	if !CheckPassword(hash, strings.Repeat("a", 72)+"different tail") {
		t.Error("CheckPassword() compared past 72 bytes")
	}
}
