package storage

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var sealMagic = []byte("jbs1")

// Sealer encrypts records with a key derived from a passphrase.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the sealing key from passphrase. An empty passphrase
// returns nil, meaning records are stored in the clear.
func NewSealer(passphrase string) *Sealer {
	if passphrase == "" {
		return nil
	}
	return &Sealer{key: blake2b.Sum256([]byte(passphrase))}
}

// IsSealed reports whether data carries the sealed-record header.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealMagic)
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(sealMagic)+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, sealMagic...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, &s.key), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	if !IsSealed(data) {
		return nil, errors.New("record is not sealed")
	}
	data = data[len(sealMagic):]
	if len(data) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed record is truncated")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])

	plaintext, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("sealed record failed authentication")
	}
	return plaintext, nil
}
