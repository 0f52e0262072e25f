package storefront

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// SessionTokenDuration is the fixed validity horizon set at issuance
const SessionTokenDuration = 365 * 24 * time.Hour

// TokenService signs and validates session tokens
type TokenService interface {
	Generate(userID string) (string, error)
	Validate(tokenString string) (*SessionClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey    []byte
	tokenDuration time.Duration
	issuer        string
	logger        Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, tokenDuration time.Duration, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if tokenDuration <= 0 {
		tokenDuration = SessionTokenDuration
	}
	return &TokenServiceImpl{
		signingKey:    signingKey,
		tokenDuration: tokenDuration,
		issuer:        issuer,
		logger:        logger,
	}
}

// Generate creates a session JWT embedding the user identifier
func (ts *TokenServiceImpl) Generate(userID string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenDuration)),
		},
		UID: userID,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary session claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrUnableToDecodeSession
}
