// Package receiptcodec turns a plain-text receipt into an opaque, copy-pasteable
// token and back. It deters casual editing by the customer; it is not a
// security boundary.
package receiptcodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/example/zari-storefront/internal/domain"
	"golang.org/x/crypto/hkdf"
)

const (
	prefix  = "ZR1."
	tagSize = aes.BlockSize
)

var encoding = base64.RawURLEncoding

// Codec is deterministic: equal inputs under the same secret yield equal tokens.
type Codec struct {
	block  cipher.Block
	macKey []byte
}

// New derives independent cipher and MAC keys from the shared secret.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("receiptcodec: empty secret")
	}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("zari receipt token v1"))
	encKey := make([]byte, 32)
	macKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, fmt.Errorf("receiptcodec: derive key: %w", err)
	}
	if _, err := io.ReadFull(kdf, macKey); err != nil {
		return nil, fmt.Errorf("receiptcodec: derive key: %w", err)
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("receiptcodec: %w", err)
	}
	return &Codec{block: block, macKey: macKey}, nil
}

// Encode returns prefix + base64url(tag || ciphertext). The tag is an HMAC of
// the plaintext and doubles as the CTR IV.
func (c *Codec) Encode(plain string) string {
	tag := c.tag([]byte(plain))
	out := make([]byte, tagSize+len(plain))
	copy(out, tag)
	cipher.NewCTR(c.block, tag).XORKeyStream(out[tagSize:], []byte(plain))
	return prefix + encoding.EncodeToString(out)
}

// Decode reverses Encode. Whitespace anywhere in token is ignored. Malformed,
// truncated, edited, or foreign-keyed tokens yield domain.ErrUndecodable.
func (c *Codec) Decode(token string) (string, error) {
	token = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, token)
	if !strings.HasPrefix(token, prefix) {
		return "", fmt.Errorf("%w: unknown token format", domain.ErrUndecodable)
	}
	raw, err := encoding.DecodeString(token[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUndecodable, err)
	}
	if len(raw) < tagSize {
		return "", fmt.Errorf("%w: token too short", domain.ErrUndecodable)
	}
	tag, body := raw[:tagSize], raw[tagSize:]
	plain := make([]byte, len(body))
	cipher.NewCTR(c.block, tag).XORKeyStream(plain, body)
	if !hmac.Equal(tag, c.tag(plain)) {
		return "", fmt.Errorf("%w: integrity check failed", domain.ErrUndecodable)
	}
	return string(plain), nil
}

func (c *Codec) tag(plain []byte) []byte {
	m := hmac.New(sha256.New, c.macKey)
	m.Write(plain)
	return m.Sum(nil)[:tagSize]
}
