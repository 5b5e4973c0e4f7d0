package web

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/valyala/fasthttp"
)

func TestNewFastRequestContext_RequestID(t *testing.T) {
	t.Run("from header", func(t *testing.T) {
		rc := &fasthttp.RequestCtx{}
		rc.Request.Header.Set("X-Request-ID", "test-request-id")

		ctx := NewFastRequestContext(rc)
		if ctx.RequestID() != "test-request-id" {
			t.Errorf("RequestID() = %v, want test-request-id", ctx.RequestID())
		}
		if got := string(rc.Response.Header.Peek("X-Request-ID")); got != "test-request-id" {
			t.Errorf("response X-Request-ID = %v, want test-request-id", got)
		}
	})

	t.Run("generated", func(t *testing.T) {
		ctx := NewFastRequestContext(&fasthttp.RequestCtx{})
		if ctx.RequestID() == "" {
			t.Error("RequestID() should be generated when header is missing")
		}
	})
}

func TestFastRequestContext_Context(t *testing.T) {
	rc := &fasthttp.RequestCtx{}
	rc.Request.Header.Set("X-Request-ID", "test-request-id")
	fastCtx := NewFastRequestContext(rc)

	if got := core.GetRequestID(fastCtx.Context()); got != "test-request-id" {
		t.Errorf("GetRequestID() from context = %v, want test-request-id", got)
	}

	type key struct{}
	fastCtx.SetContext(context.WithValue(fastCtx.Context(), key{}, "v"))
	if fastCtx.Context().Value(key{}) != "v" {
		t.Error("SetContext() value not visible through Context()")
	}
	if got := core.GetRequestID(fastCtx.Context()); got != "test-request-id" {
		t.Errorf("request ID lost after SetContext: %v", got)
	}
}

func TestFastRequestContext_SetGet(t *testing.T) {
	fastCtx := &FastRequestContext{RequestCtx: &fasthttp.RequestCtx{}}

	fastCtx.Set("key1", "value1")
	fastCtx.Set("key2", 42)

	if val := fastCtx.Get("key1"); val != "value1" {
		t.Errorf("Get(key1) = %v, want value1", val)
	}
	if val := fastCtx.Get("key2"); val != 42 {
		t.Errorf("Get(key2) = %v, want 42", val)
	}
	if val := fastCtx.Get("nonexistent"); val != nil {
		t.Errorf("Get(nonexistent) = %v, want nil", val)
	}
}

func TestFastRequestContext_JSON(t *testing.T) {
	fastCtx := &FastRequestContext{RequestCtx: &fasthttp.RequestCtx{}}

	// Test fail-fast: invalid status code
	if err := fastCtx.JSON(999, "test"); err == nil {
		t.Error("JSON() with invalid status code should fail")
	}
	if err := fastCtx.JSON(0, "test"); err == nil {
		t.Error("JSON() with zero status code should fail")
	}

	if err := fastCtx.JSONError(404, "not_found", "Todo not found"); err != nil {
		t.Fatalf("JSONError() error = %v", err)
	}
	if fastCtx.StatusCode() != 404 {
		t.Errorf("StatusCode() = %d, want 404", fastCtx.StatusCode())
	}

	var body ErrorResponse
	if err := json.Unmarshal(fastCtx.RequestCtx.Response.Body(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Error != "not_found" || body.Message != "Todo not found" {
		t.Errorf("body = %+v", body)
	}
}

func TestFastRequestContext_BindJSON(t *testing.T) {
	fastCtx := &FastRequestContext{RequestCtx: &fasthttp.RequestCtx{}}

	// Test fail-fast: nil target
	if err := fastCtx.BindJSON(nil); err == nil {
		t.Error("BindJSON() with nil target should fail")
	}

	var v map[string]string
	if err := fastCtx.BindJSON(&v); err == nil {
		t.Error("BindJSON() with empty body should fail")
	}

	fastCtx.RequestCtx.Request.SetBodyString(`{"title":"a"}`)
	if err := fastCtx.BindJSON(&v); err != nil {
		t.Fatalf("BindJSON() error = %v", err)
	}
	if v["title"] != "a" {
		t.Errorf("title = %v, want a", v["title"])
	}
}
