package textstats

import (
	"encoding/json"
	"testing"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/observability/prometheus"
	"github.com/fluxorio/todo-service/pkg/web"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/valyala/fasthttp"
)

func post(router *web.FastRouter, body string) *fasthttp.RequestCtx {
	rc := &fasthttp.RequestCtx{}
	rc.Request.Header.SetMethod("POST")
	rc.Request.SetRequestURI("/api/v1/process/text")
	rc.Request.SetBodyString(body)
	router.ServeFastHTTP(web.NewFastRequestContext(rc))
	return rc
}

func TestHandler_Process(t *testing.T) {
	_, registerer := prometheus.NewRegistry("test")
	metrics := prometheus.NewMetrics(registerer)

	router := web.NewFastRouter(core.NewNopLogger())
	NewHandler(NewAnalyzer(WithClock(fixedClock)), metrics).Register(router)

	tests := []struct {
		name     string
		body     string
		words    int
		chars    int
		keywords int
	}{
		{"text", `{"text":"the quick brown fox"}`, 4, 19, 4},
		{"missing text", `{}`, 0, 0, 0},
		{"null text", `{"text":null}`, 0, 0, 0},
		{"empty body", ``, 0, 0, 0},
		{"extra fields", `{"text":"hello world","lang":"en"}`, 2, 11, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := post(router, tt.body)
			if rc.Response.StatusCode() != 200 {
				t.Fatalf("status = %d, body %s", rc.Response.StatusCode(), rc.Response.Body())
			}
			var got Result
			if err := json.Unmarshal(rc.Response.Body(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.WordCount != tt.words || got.CharCount != tt.chars || len(got.Keywords) != tt.keywords {
				t.Errorf("result = %+v, want %d words %d chars %d keywords", got, tt.words, tt.chars, tt.keywords)
			}
		})
	}

	if got := testutil.ToFloat64(metrics.TextAnalysesTotal); got != float64(len(tests)) {
		t.Errorf("TextAnalysesTotal = %v, want %d", got, len(tests))
	}
}

func TestHandler_ProcessEmptyKeywordsIsArray(t *testing.T) {
	router := web.NewFastRouter(core.NewNopLogger())
	NewHandler(NewAnalyzer(WithClock(fixedClock)), nil).Register(router)

	rc := post(router, `{}`)
	want := `{"original_length":0,"char_count":0,"word_count":0,"keywords":[],"processed_at":"2025-11-14T20:15:11Z","summary":"Text contains 0 words, 0 characters"}`
	if string(rc.Response.Body()) != want {
		t.Errorf("body = %s, want %s", rc.Response.Body(), want)
	}
}

func TestHandler_ProcessInvalid(t *testing.T) {
	router := web.NewFastRouter(core.NewNopLogger())
	NewHandler(NewAnalyzer(), nil).Register(router)

	for _, body := range []string{`{"text":5}`, `{"text":["a"]}`, `"text"`, `[1]`, `null`, `{"text":`} {
		rc := post(router, body)
		if rc.Response.StatusCode() != 400 {
			t.Errorf("body %s: status = %d, want 400", body, rc.Response.StatusCode())
			continue
		}
		var errBody web.ErrorResponse
		if err := json.Unmarshal(rc.Response.Body(), &errBody); err != nil || errBody.Error != "invalid_request" {
			t.Errorf("body %s: error body = %s", body, rc.Response.Body())
		}
	}
}
