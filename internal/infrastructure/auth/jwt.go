package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/orris-inc/autopay/internal/shared/biztime"
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// Claims identify the calling principal through the standard "sub" claim.
type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Principal returns the authenticated principal id.
func (c *Claims) Principal() string {
	return c.Subject
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type JWTService struct {
	secret     []byte
	issuer     string
	expMinutes int
	clock      biztime.Clock
}

func NewJWTService(secret, issuer string, expMinutes int, clock biztime.Clock) *JWTService {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &JWTService{
		secret:     []byte(secret),
		issuer:     issuer,
		expMinutes: expMinutes,
		clock:      clock,
	}
}

// Generate signs an access token for principal. A zero ttl uses the
// configured expiry.
func (s *JWTService) Generate(principal string, ttl time.Duration) (*IssuedToken, error) {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return nil, errors.New("principal is required")
	}
	if ttl <= 0 {
		ttl = time.Duration(s.expMinutes) * time.Minute
	}

	now := s.clock.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("token is not an access token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}

// ExpMinutes returns the default access token lifetime in minutes
func (s *JWTService) ExpMinutes() int {
	return s.expMinutes
}
