package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// OTPLength is the length of the OTP code
	OTPLength = 6

	otpKeyPrefix = "otp:"
)

// OTPService issues and single-use-verifies a short numeric code per
// contact identity, backed by Redis expiring keys. Reissuing a code for
// the same identity overwrites and implicitly invalidates the prior one.
type OTPService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPService creates a new OTP service
func NewOTPService(client *redis.Client, ttl time.Duration) *OTPService {
	return &OTPService{client: client, ttl: ttl}
}

// TTL returns the code validity window.
func (s *OTPService) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh 6-digit code for the identity and stores it with
// the configured TTL, overwriting any prior code.
func (s *OTPService) Issue(ctx context.Context, identity string) (string, error) {
	code, err := generateOTPCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	if err := s.client.Set(ctx, otpKeyPrefix+identity, code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}
	return code, nil
}

// consumeScript compares and deletes in one server-side step, so two
// concurrent verifies of the same code cannot both succeed. A mismatch
// leaves the stored code in place.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Verify checks a submitted code against the stored one. A match consumes
// the code (single use) and returns true; a missing, expired or mismatched
// code returns false.
func (s *OTPService) Verify(ctx context.Context, identity, submitted string) (bool, error) {
	consumed, err := consumeScript.Run(ctx, s.client, []string{otpKeyPrefix + identity}, submitted).Int()
	if err != nil {
		return false, fmt.Errorf("failed to verify OTP: %w", err)
	}
	return consumed == 1, nil
}

// Invalidate drops any stored code for the identity.
func (s *OTPService) Invalidate(ctx context.Context, identity string) error {
	if err := s.client.Del(ctx, otpKeyPrefix+identity).Err(); err != nil {
		return fmt.Errorf("failed to invalidate OTP: %w", err)
	}
	return nil
}

// generateOTPCode returns a cryptographically secure code uniform over
// 100000-999999.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
