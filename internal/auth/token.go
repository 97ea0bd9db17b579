package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLeeway is the clock-skew tolerance applied when validating
// token expiry and issuance times.
const DefaultLeeway = 30 * time.Second

var (
	// ErrTokenMissing signals that no bearer token was supplied.
	ErrTokenMissing = errors.New("no token provided")
	// ErrTokenMalformed signals a token that failed parsing, signature,
	// issuer, or audience checks.
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenExpired signals a token past its expiry (beyond leeway).
	ErrTokenExpired = errors.New("token is expired")
)

// TokenService issues and verifies the bearer tokens used on every
// authenticated request. Tokens are HS256-signed claims of
// {subject, issuer, audience, expiry} over a shared secret; there is no
// revocation, expiry is the only termination path.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

func NewTokenService(secret []byte, issuer, audience string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		leeway:   DefaultLeeway,
	}
}

// Issue mints a signed token for the given account id.
func (s *TokenService) Issue(subjectID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subjectID, 10),
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates signature, issuer, audience, and expiry and returns
// the subject account id. Expired tokens yield ErrTokenExpired; every
// other failure yields ErrTokenMalformed.
func (s *TokenService) Verify(tokenString string) (int64, error) {
	if tokenString == "" {
		return 0, ErrTokenMissing
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenMalformed
	}
	if !token.Valid {
		return 0, ErrTokenMalformed
	}

	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject < 1 {
		return 0, ErrTokenMalformed
	}
	return subject, nil
}
