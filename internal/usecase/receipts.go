package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/zari-storefront/internal/domain"
	"go.uber.org/zap"
)

// Decoder turns a receipt token back into receipt text.
type Decoder interface {
	Decode(token string) (string, error)
}

// DecodeReceipt — расшифровать токен чека по паролю администратора.
type DecodeReceipt struct {
	Codec    Decoder
	Password string
}

// Execute checks the admin password before decoding. An empty configured
// password disables decoding.
func (uc DecodeReceipt) Execute(password, token string) (string, error) {
	if !uc.authorized(password) {
		return "", domain.ErrUnauthorized
	}
	if strings.TrimSpace(token) == "" {
		v := &domain.ValidationError{}
		v.Add("token", "required")
		return "", v
	}
	return uc.Codec.Decode(token)
}

func (uc DecodeReceipt) authorized(password string) bool {
	if uc.Password == "" {
		return false
	}
	want := sha256.Sum256([]byte(uc.Password))
	got := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// ProcessHandoffToken — расшифровать токен из ленты оператора и вывести чек.
// Нераспознанные токены логируются и отбрасываются.
type ProcessHandoffToken struct {
	Codec Decoder
	Out   io.Writer
	Log   *zap.Logger
}

func (uc ProcessHandoffToken) Execute(_ context.Context, raw []byte) error {
	plain, err := uc.Codec.Decode(string(raw))
	if errors.Is(err, domain.ErrUndecodable) {
		if uc.Log != nil {
			uc.Log.Warn("drop undecodable handoff token", zap.Int("size", len(raw)))
		}
		return nil
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(uc.Out, "%s\n", plain)
	return err
}
