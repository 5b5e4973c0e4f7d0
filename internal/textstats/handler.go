package textstats

import (
	"bytes"
	"encoding/json"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/observability/prometheus"
	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/valyala/fasthttp"
)

// AnalyzeRequest is the body of POST /api/v1/process/text. A missing text is "".
type AnalyzeRequest struct {
	Text *string `json:"text"`
}

// Handler serves the text processing endpoint
type Handler struct {
	analyzer *Analyzer
	metrics  *prometheus.Metrics
}

// NewHandler creates a handler. metrics may be nil.
func NewHandler(analyzer *Analyzer, metrics *prometheus.Metrics) *Handler {
	return &Handler{analyzer: analyzer, metrics: metrics}
}

// Register mounts POST /api/v1/process/text
func (h *Handler) Register(router *web.FastRouter, middleware ...web.FastMiddleware) {
	router.POSTFast("/api/v1/process/text", h.Process, middleware...)
}

// Process handles POST /api/v1/process/text
func (h *Handler) Process(ctx *web.FastRequestContext) error {
	req, ok := parseRequest(ctx.Body())
	if !ok {
		return ctx.JSONError(fasthttp.StatusBadRequest, "invalid_request", "Body must be a JSON object with an optional string field text")
	}

	text := ""
	if req.Text != nil {
		text = *req.Text
	}
	result := h.analyzer.Analyze(text)
	if h.metrics != nil {
		h.metrics.RecordTextAnalysis(result.WordCount)
	}
	return ctx.JSON(fasthttp.StatusOK, result)
}

// parseRequest accepts an empty body as {}. Anything but a JSON object whose
// text is a string or null is rejected.
func parseRequest(body []byte) (AnalyzeRequest, bool) {
	var req AnalyzeRequest
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return req, true
	}

	var fields map[string]json.RawMessage
	if err := core.JSONDecode(body, &fields); err != nil || fields == nil {
		return req, false
	}
	raw, present := fields["text"]
	if !present {
		return req, true
	}
	if err := core.JSONDecode(raw, &req.Text); err != nil {
		return req, false
	}
	return req, true
}
