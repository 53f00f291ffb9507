package stub

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/totegamma/concrnt-loadtest/jwt"
)

func TestAuthJwtCachesAcceptedTokens(t *testing.T) {
	id := newIdentity(t)
	token, err := jwt.GenerateAuthToken(id, testFQDN)
	if err != nil {
		t.Fatalf("GenerateAuthToken: %v", err)
	}

	auth := NewAuthService(testFQDN)
	first, err := auth.AuthJwt(context.Background(), token)
	if err != nil {
		t.Fatalf("AuthJwt: %v", err)
	}
	if first.CCID != id.Address {
		t.Fatalf("expected %s, got %s", id.Address, first.CCID)
	}

	second, err := auth.AuthJwt(context.Background(), token)
	if err != nil {
		t.Fatalf("AuthJwt (cached): %v", err)
	}
	if first != second {
		t.Fatalf("expected the cached result to be returned")
	}
}

func TestAuthJwtRejectsForeignAudience(t *testing.T) {
	token, err := jwt.GenerateAuthToken(newIdentity(t), "other.example.com")
	if err != nil {
		t.Fatalf("GenerateAuthToken: %v", err)
	}

	auth := NewAuthService(testFQDN)
	if _, err := auth.AuthJwt(context.Background(), token); err == nil {
		t.Fatalf("expected audience mismatch")
	}
	if _, ok := auth.tokens.Get(token); ok {
		t.Fatalf("rejected token must not be cached")
	}
}

func TestCacheTTL(t *testing.T) {
	soon := strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)
	if ttl := cacheTTL(soon); ttl > time.Minute || ttl <= 0 {
		t.Fatalf("unexpected ttl %s", ttl)
	}
	if ttl := cacheTTL(""); ttl != tokenCacheTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
	past := strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)
	if ttl := cacheTTL(past); ttl <= 0 {
		t.Fatalf("ttl must stay positive, got %s", ttl)
	}
}
