package pkg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidKey        = errors.New("invalid key size: must be 16, 24 or 32 bytes")
	ErrMalformedSealed   = errors.New("malformed sealed value")
	ErrSealedAuthFailure = errors.New("sealed value failed authentication")
)

// sealedPrefix tags values written by Crypto so a rotated format can be
// told apart from the current one.
const sealedPrefix = "v1."

var sealedEncoding = base64.RawURLEncoding

// Crypto seals document text at rest with AES-GCM. The AEAD is built once
// and is safe for concurrent use.
type Crypto struct {
	aead cipher.AEAD
}

func NewCrypto(key string) (*Crypto, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKey, len(key))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Crypto{aead: aead}, nil
}

// Encrypt returns "v1." followed by base64url(nonce || ciphertext || tag).
func (c *Crypto) Encrypt(plain string) (string, error) {
	ns := c.aead.NonceSize()
	buf := make([]byte, ns, ns+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(buf, buf[:ns], []byte(plain), nil)
	return sealedPrefix + sealedEncoding.EncodeToString(sealed), nil
}

func (c *Crypto) Decrypt(sealed string) (string, error) {
	body, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", fmt.Errorf("%w: missing version prefix", ErrMalformedSealed)
	}
	raw, err := sealedEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSealed, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", fmt.Errorf("%w: %d bytes is too short", ErrMalformedSealed, len(raw))
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrSealedAuthFailure
	}
	return string(plain), nil
}
