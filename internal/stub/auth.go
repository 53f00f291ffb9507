package stub

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/jwt"
)

var tracer = otel.Tracer("stub")

const tokenCacheTTL = 10 * time.Minute

// AuthService validates bearer tokens. Accepted tokens are remembered until they expire
// so repeated lookups by the same actor skip signature recovery.
type AuthService struct {
	fqdn   string
	tokens *cache.Cache
}

func NewAuthService(fqdn string) *AuthService {
	return &AuthService{
		fqdn:   fqdn,
		tokens: cache.New(tokenCacheTTL, 15*time.Minute),
	}
}

type AuthResult struct {
	CCID string
}

func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Stub.Auth.AuthJwt")
	defer span.End()

	if cached, ok := s.tokens.Get(token); ok {
		return cached.(*AuthResult), nil
	}

	header, claims, err := jwt.Validate(token)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if s.fqdn != "" && claims.Audience != s.fqdn {
		err := fmt.Errorf("jwt audience mismatch: expected %s, got %s", s.fqdn, claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	if claims.Subject != "concrnt" {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return nil, err
	}

	keyID := header.KeyID
	if keyID == "" {
		keyID = claims.Issuer
	}

	if !concrnt.IsCCID(keyID) {
		err := fmt.Errorf("invalid issuer")
		span.RecordError(err)
		return nil, err
	}

	result := &AuthResult{CCID: keyID}
	s.tokens.Set(token, result, cacheTTL(claims.ExpirationTime))
	return result, nil
}

func cacheTTL(exp string) time.Duration {
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return tokenCacheTTL
	}
	// go-cache treats a negative duration as "never expire".
	return max(min(time.Until(time.Unix(unix, 0)), tokenCacheTTL), time.Millisecond)
}
