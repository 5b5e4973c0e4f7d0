package auth

import (
	"testing"
	"time"

	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
)

const testSecret = "test-secret"

func newTestContext(path, authorization string) *web.FastRequestContext {
	rc := &fasthttp.RequestCtx{}
	rc.Request.SetRequestURI(path)
	if authorization != "" {
		rc.Request.Header.Set("Authorization", authorization)
	}
	return web.NewFastRequestContext(rc)
}

func mustToken(t *testing.T, secret, issuer string, expiresIn time.Duration) string {
	t.Helper()
	token, err := NewJWTTokenGenerator([]byte(secret), issuer).Generate("user-42", expiresIn)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return token
}

func TestJWT(t *testing.T) {
	config := DefaultJWTConfig(testSecret)
	config.Issuer = "todo-service"
	config.SkipPaths = []string{"/health"}

	var subject string
	handler := JWT(config)(func(ctx *web.FastRequestContext) error {
		subject, _ = GetSubject(ctx, DefaultClaimsKey)
		return ctx.Text(200, "ok")
	})

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "x", "iss": "todo-service"})
	hs512Token, err := hs512.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"valid token", "/api/v1/todos", "Bearer " + mustToken(t, testSecret, "todo-service", time.Hour), 200},
		{"missing header", "/api/v1/todos", "", 401},
		{"wrong scheme", "/api/v1/todos", "Basic abc", 401},
		{"empty token", "/api/v1/todos", "Bearer ", 401},
		{"wrong secret", "/api/v1/todos", "Bearer " + mustToken(t, "other", "todo-service", time.Hour), 401},
		{"wrong issuer", "/api/v1/todos", "Bearer " + mustToken(t, testSecret, "someone-else", time.Hour), 401},
		{"expired", "/api/v1/todos", "Bearer " + mustToken(t, testSecret, "todo-service", -time.Hour), 401},
		{"disallowed algorithm", "/api/v1/todos", "Bearer " + hs512Token, 401},
		{"skipped path", "/health", "", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject = ""
			ctx := newTestContext(tt.path, tt.header)
			if err := handler(ctx); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if ctx.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", ctx.StatusCode(), tt.wantStatus)
			}
			if tt.wantStatus == 401 && len(ctx.RequestCtx.Response.Header.Peek("WWW-Authenticate")) == 0 {
				t.Error("401 without WWW-Authenticate header")
			}
		})
	}

	ctx := newTestContext("/api/v1/todos", "Bearer "+mustToken(t, testSecret, "todo-service", time.Hour))
	_ = handler(ctx)
	if subject != "user-42" {
		t.Errorf("subject = %q, want user-42", subject)
	}
}

func TestJWT_QueryLookup(t *testing.T) {
	config := DefaultJWTConfig(testSecret)
	config.TokenLookup = "query:token"
	handler := JWT(config)(func(ctx *web.FastRequestContext) error {
		return ctx.Text(200, "ok")
	})

	ctx := newTestContext("/x?token="+mustToken(t, testSecret, "", time.Hour), "")
	_ = handler(ctx)
	if ctx.StatusCode() != 200 {
		t.Errorf("status = %d, want 200", ctx.StatusCode())
	}
}

func TestJWT_InvalidConfigPanics(t *testing.T) {
	tests := []struct {
		name   string
		config JWTConfig
	}{
		{"no secret", JWTConfig{}},
		{"bad lookup", JWTConfig{SecretKey: "s", TokenLookup: "header"}},
		{"unknown source", JWTConfig{SecretKey: "s", TokenLookup: "cookie:jwt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("JWT() should panic")
				}
			}()
			JWT(tt.config)
		})
	}
}

func TestGetClaims_Missing(t *testing.T) {
	if _, err := GetClaims(newTestContext("/", ""), DefaultClaimsKey); err == nil {
		t.Error("GetClaims() should fail without authentication")
	}
}
