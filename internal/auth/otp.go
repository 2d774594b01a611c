package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTP codes are 8 digits and live for 15 minutes, matching the sign-in
// emails the portal sends.
const (
	OTPLength = 8
	OTPTTL    = 15 * time.Minute
)

var ErrCodeMismatch = errors.New("invalid or expired code")

// OTPStore keeps one pending sign-in code per email address in Redis. The
// TTL doubles as the expiry mechanism; no sweeper needed.
type OTPStore struct {
	rdb *redis.Client
}

func NewOTPStore(rdb *redis.Client) *OTPStore {
	return &OTPStore{rdb: rdb}
}

// GenerateCode returns a random numeric code of OTPLength digits. Bytes
// at 250 and above are discarded before the modulo so every digit is
// equally likely.
func GenerateCode() (string, error) {
	digits := make([]byte, 0, OTPLength)
	buf := make([]byte, 2*OTPLength)
	for len(digits) < OTPLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, c := range buf {
			if c >= 250 {
				continue
			}
			digits = append(digits, '0'+c%10)
			if len(digits) == OTPLength {
				break
			}
		}
	}
	return string(digits), nil
}

func otpKey(email string) string {
	return "otp:" + strings.ToLower(email)
}

// Put stores the code for an email, replacing any earlier pending code.
func (s *OTPStore) Put(ctx context.Context, email, code string) error {
	if err := s.rdb.Set(ctx, otpKey(email), code, OTPTTL).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// Consume checks the submitted code and deletes it on success. A code can
// be used exactly once.
func (s *OTPStore) Consume(ctx context.Context, email, code string) error {
	key := otpKey(email)
	stored, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeMismatch
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}
