package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest"
)

const (
	tokenType      = "JWT"
	tokenAlgorithm = "CONCRNT"
	tokenSubject   = "concrnt"
	tokenLifetime  = time.Hour
)

// Create signs claims with privatekey.
func Create(claims Claims, privatekey string) (string, error) {
	header := Header{
		Type:      tokenType,
		Algorithm: tokenAlgorithm,
	}
	headerStr, err := json.Marshal(header)
	if err != nil {
		return "", err
	}

	payloadStr, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	headerB64 := base64.RawURLEncoding.EncodeToString(headerStr)
	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadStr)
	target := headerB64 + "." + payloadB64

	signatureBytes, err := concrnt.SignBytes([]byte(target), privatekey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign jwt")
	}
	signatureB64 := base64.RawURLEncoding.EncodeToString(signatureBytes)

	return target + "." + signatureB64, nil
}

// GenerateAuthToken issues a self signed token for identity, bound to the domain audience.
// No network call is made; the server decides whether the token is acceptable.
func GenerateAuthToken(identity concrnt.Identity, domain string) (string, error) {
	now := time.Now()
	return Create(Claims{
		Issuer:         identity.Address,
		Subject:        tokenSubject,
		Audience:       domain,
		ExpirationTime: strconv.FormatInt(now.Add(tokenLifetime).Unix(), 10),
		IssuedAt:       strconv.FormatInt(now.Unix(), 10),
		JWTID:          uuid.New().String(),
	}, identity.PrivKey)
}

// Validate checks is jwt signature valid and not expired
func Validate(jwt string) (*Header, *Claims, error) {

	split := strings.Split(jwt, ".")
	if len(split) != 3 {
		return nil, nil, errors.New("invalid jwt format")
	}

	var header Header
	headerBytes, err := base64.RawURLEncoding.DecodeString(split[0])
	if err != nil {
		return nil, nil, err
	}
	err = json.Unmarshal(headerBytes, &header)
	if err != nil {
		return nil, nil, err
	}

	// check jwt type
	if header.Type != tokenType || header.Algorithm != tokenAlgorithm {
		return nil, nil, errors.New("unsupported jwt type")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(split[1])
	if err != nil {
		return nil, nil, err
	}

	var claims Claims
	err = json.Unmarshal(payloadBytes, &claims)
	if err != nil {
		return nil, nil, err
	}

	// check exp
	if claims.ExpirationTime != "" {
		exp, err := strconv.ParseInt(claims.ExpirationTime, 10, 64)
		if err != nil {
			return nil, nil, err
		}
		if exp < time.Now().Unix() {
			return nil, nil, errors.New("jwt is already expired")
		}
	}

	// check signature
	signatureBytes, err := base64.RawURLEncoding.DecodeString(split[2])
	if err != nil {
		return nil, nil, err
	}

	keyID := header.KeyID
	if keyID == "" {
		keyID = claims.Issuer
	}

	err = concrnt.VerifySignature([]byte(split[0]+"."+split[1]), signatureBytes, keyID)
	if err != nil {
		return nil, nil, err
	}

	return &header, &claims, nil
}
