// Package security provides response hardening and rate limiting middleware.
package security

import (
	"strconv"

	"github.com/fluxorio/todo-service/pkg/web"
)

// HeadersConfig configures security headers
type HeadersConfig struct {
	// HSTS (HTTP Strict Transport Security)
	HSTS           bool
	HSTSMaxAge     int // in seconds, default 31536000 (1 year)
	HSTSIncludeSub bool

	CSP                           string
	XFrameOptions                 string // DENY or SAMEORIGIN
	XContentTypeOptions           bool   // nosniff
	ReferrerPolicy                string
	PermissionsPolicy             string
	XDNSPrefetchControl           bool // "off"
	XPermittedCrossDomainPolicies string
	CrossOriginOpenerPolicy       string
	CrossOriginResourcePolicy     string

	// Custom headers
	CustomHeaders map[string]string
}

// DefaultHeadersConfig returns headers suited to a JSON API
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		HSTS:                          true,
		HSTSMaxAge:                    31536000,
		HSTSIncludeSub:                true,
		XContentTypeOptions:           true,
		CSP:                           "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		ReferrerPolicy:                "no-referrer",
		XFrameOptions:                 "DENY",
		XDNSPrefetchControl:           true,
		XPermittedCrossDomainPolicies: "none",
		CrossOriginOpenerPolicy:       "same-origin",
		CrossOriginResourcePolicy:     "same-origin",
	}
}

type header struct {
	key, value string
}

// headerList renders the config once so each request only copies pairs
func (c HeadersConfig) headerList() []header {
	var list []header
	add := func(key, value string) {
		if value != "" {
			list = append(list, header{key, value})
		}
	}

	if c.HSTS {
		maxAge := c.HSTSMaxAge
		if maxAge <= 0 {
			maxAge = 31536000
		}
		hsts := "max-age=" + strconv.Itoa(maxAge)
		if c.HSTSIncludeSub {
			hsts += "; includeSubDomains"
		}
		add("Strict-Transport-Security", hsts)
	}
	add("Content-Security-Policy", c.CSP)
	add("X-Frame-Options", c.XFrameOptions)
	if c.XContentTypeOptions {
		add("X-Content-Type-Options", "nosniff")
	}
	add("Referrer-Policy", c.ReferrerPolicy)
	add("Permissions-Policy", c.PermissionsPolicy)
	if c.XDNSPrefetchControl {
		add("X-DNS-Prefetch-Control", "off")
	}
	add("X-Permitted-Cross-Domain-Policies", c.XPermittedCrossDomainPolicies)
	add("Cross-Origin-Opener-Policy", c.CrossOriginOpenerPolicy)
	add("Cross-Origin-Resource-Policy", c.CrossOriginResourcePolicy)
	for key, value := range c.CustomHeaders {
		add(key, value)
	}
	return list
}

// Headers middleware adds security headers to every response
func Headers(config HeadersConfig) web.FastMiddleware {
	headers := config.headerList()

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			for _, h := range headers {
				ctx.RequestCtx.Response.Header.Set(h.key, h.value)
			}
			return next(ctx)
		}
	}
}
