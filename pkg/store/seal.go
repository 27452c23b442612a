package store

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// deriveKey turns an arbitrary secret string into a secretbox key.
func deriveKey(secret string) [32]byte {
	return sha256.Sum256([]byte("webops-credential-seal:" + secret))
}

// seal encrypts plain with a random nonce prepended to the box.
func seal(key [32]byte, plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &key), nil
}

// open decrypts a sealed blob produced by seal.
func open(key [32]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, errors.New("sealed blob too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &key)
	if !ok {
		return nil, errors.New("failed to authenticate sealed blob")
	}
	return plain, nil
}
