// Package auth provides bearer token authentication for fasthttp routes.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
)

// DefaultClaimsKey is where validated claims are stored on the request
const DefaultClaimsKey = "user"

// JWTConfig configures JWT authentication
type JWTConfig struct {
	// SecretKey is the HMAC key used to verify tokens
	SecretKey string

	// ValidMethods is the list of accepted signing algorithms. Default: HS256
	ValidMethods []string

	// Issuer requires a matching `iss` claim when set
	Issuer string

	// Leeway allows small clock skew for exp/nbf/iat validation
	Leeway time.Duration

	// ClaimsKey is the key to store claims in request context
	ClaimsKey string

	// TokenLookup is "header:<name>" or "query:<name>". Default: header:Authorization
	TokenLookup string

	// AuthScheme is the authorization scheme (default: "Bearer")
	AuthScheme string

	// SkipPaths are path prefixes that need no token
	SkipPaths []string

	// OnError is called when authentication fails. Default: 401 JSON
	OnError func(ctx *web.FastRequestContext, err error) error
}

// DefaultJWTConfig returns a default JWT configuration
func DefaultJWTConfig(secretKey string) JWTConfig {
	return JWTConfig{
		SecretKey:    secretKey,
		ClaimsKey:    DefaultClaimsKey,
		TokenLookup:  "header:Authorization",
		AuthScheme:   "Bearer",
		ValidMethods: []string{"HS256"},
	}
}

var (
	errTokenMissing   = errors.New("token missing")
	errTokenMalformed = errors.New("invalid authorization header format")
)

type tokenExtractor func(ctx *web.FastRequestContext) (string, error)

func newTokenExtractor(lookup, scheme string) tokenExtractor {
	source, name, ok := strings.Cut(lookup, ":")
	if !ok || name == "" {
		panic("JWT: invalid TokenLookup format, expected 'source:name'")
	}

	switch source {
	case "header":
		prefix := scheme + " "
		return func(ctx *web.FastRequestContext) (string, error) {
			value := ctx.Header(name)
			if value == "" {
				return "", errTokenMissing
			}
			if !strings.HasPrefix(value, prefix) || len(value) == len(prefix) {
				return "", errTokenMalformed
			}
			return strings.TrimSpace(value[len(prefix):]), nil
		}
	case "query":
		return func(ctx *web.FastRequestContext) (string, error) {
			value := ctx.Query(name)
			if value == "" {
				return "", errTokenMissing
			}
			return value, nil
		}
	default:
		panic(fmt.Sprintf("JWT: unsupported token lookup source %q", source))
	}
}

// JWT middleware validates HMAC-signed tokens and stores their claims on the request
func JWT(config JWTConfig) web.FastMiddleware {
	if config.SecretKey == "" {
		panic("JWT: SecretKey must be provided")
	}

	validMethods := config.ValidMethods
	if len(validMethods) == 0 {
		validMethods = []string{"HS256"}
	}
	claimsKey := config.ClaimsKey
	if claimsKey == "" {
		claimsKey = DefaultClaimsKey
	}
	authScheme := config.AuthScheme
	if authScheme == "" {
		authScheme = "Bearer"
	}
	tokenLookup := config.TokenLookup
	if tokenLookup == "" {
		tokenLookup = "header:Authorization"
	}
	extract := newTokenExtractor(tokenLookup, authScheme)

	options := []jwt.ParserOption{jwt.WithValidMethods(validMethods)}
	if config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(config.Leeway))
	}
	if config.Issuer != "" {
		options = append(options, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(options...)

	secret := []byte(config.SecretKey)
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}

	onError := config.OnError
	if onError == nil {
		onError = func(ctx *web.FastRequestContext, err error) error {
			ctx.RequestCtx.Response.Header.Set("WWW-Authenticate", authScheme+` error="invalid_token"`)
			// internal error details stay out of the response
			return ctx.JSONError(fasthttp.StatusUnauthorized, "unauthorized", "invalid or missing token")
		}
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			path := string(ctx.Path())
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(ctx)
				}
			}

			tokenString, err := extract(ctx)
			if err != nil {
				return onError(ctx, err)
			}

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, keyFunc)
			if err != nil || !token.Valid {
				return onError(ctx, fmt.Errorf("invalid token: %w", err))
			}

			ctx.Set(claimsKey, claims)
			return next(ctx)
		}
	}
}

// GetClaims extracts JWT claims from request context
func GetClaims(ctx *web.FastRequestContext, key string) (jwt.MapClaims, error) {
	claims, ok := ctx.Get(key).(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// GetSubject returns the `sub` claim of the authenticated request
func GetSubject(ctx *web.FastRequestContext, key string) (string, error) {
	claims, err := GetClaims(ctx, key)
	if err != nil {
		return "", err
	}
	return claims.GetSubject()
}

// JWTTokenGenerator generates HS256 tokens
type JWTTokenGenerator struct {
	secret []byte
	issuer string
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(secret []byte, issuer string) *JWTTokenGenerator {
	return &JWTTokenGenerator{secret: secret, issuer: issuer}
}

// Generate signs a token for subject valid for expiresIn
func (g *JWTTokenGenerator) Generate(subject string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    g.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
