package prometheus

import (
	"database/sql"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/web"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func TestStatusCodeString(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{0, "unknown"},
	}
	for _, tt := range tests {
		if got := statusCodeString(tt.code); got != tt.want {
			t.Errorf("statusCodeString(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestMetrics_Record(t *testing.T) {
	registry, registerer := NewRegistry("todo-test")
	m := NewMetrics(registerer)

	m.RecordTodoOperation("create", "ok")
	m.RecordTodoOperation("create", "ok")
	m.RecordTodoOperation("delete", "not_found")
	m.SetTodoCounts(3, 2)
	m.RecordTextAnalysis(4)
	m.RecordEventPublished("todo.created", nil)
	m.RecordEventPublished("todo.created", errors.New("down"))

	if got := testutil.ToFloat64(m.TodoOperationsTotal.WithLabelValues("create", "ok")); got != 2 {
		t.Errorf("create ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TodosStored); got != 3 {
		t.Errorf("TodosStored = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.TextAnalysesTotal); got != 1 {
		t.Errorf("TextAnalysesTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("todo.created", "error")); got != 1 {
		t.Errorf("events error = %v, want 1", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() != "todo_todo_operations_total" {
			continue
		}
		found = true
		for _, metric := range mf.GetMetric() {
			hasService := false
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "service" && lp.GetValue() == "todo-test" {
					hasService = true
				}
			}
			if !hasService {
				t.Errorf("metric %v missing service label", metric)
			}
		}
	}
	if !found {
		t.Error("todo_todo_operations_total not gathered")
	}
}

func TestMetrics_RegisterDBStats(t *testing.T) {
	registry, registerer := NewRegistry("todo-test")
	m := NewMetrics(registerer)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	if err := m.RegisterDBStats(db, "todos"); err != nil {
		t.Fatalf("RegisterDBStats() error = %v", err)
	}
	count, err := testutil.GatherAndCount(registry, "go_sql_open_connections")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("go_sql_open_connections series = %d, want 1", count)
	}
}

func TestFastHTTPMetricsMiddleware(t *testing.T) {
	registry, registerer := NewRegistry("todo-test")
	m := NewMetrics(registerer)

	server := web.NewFastHTTPServer(web.DefaultFastHTTPServerConfig(":0"), core.NewNopLogger())
	router := server.FastRouter()
	router.Use(FastHTTPMetricsMiddleware(m))
	router.GETFast("/api/v1/todos/:id", func(ctx *web.FastRequestContext) error {
		return ctx.JSON(200, map[string]string{"id": ctx.Param("id")})
	})
	router.GETFast("/metrics", MetricsHandler(registry, func() { UpdateServerMetrics(m, server) }))

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = server.Serve(ln) }()
	defer ln.Close()

	client := &fasthttp.Client{Dial: func(addr string) (net.Conn, error) { return ln.Dial() }}
	get := func(uri string) *fasthttp.Response {
		t.Helper()
		req := fasthttp.AcquireRequest()
		defer fasthttp.ReleaseRequest(req)
		req.SetRequestURI(uri)
		resp := &fasthttp.Response{}
		if err := client.Do(req, resp); err != nil {
			t.Fatalf("GET %s error = %v", uri, err)
		}
		return resp
	}

	get("http://test/api/v1/todos/1")
	get("http://test/api/v1/todos/2")
	get("http://test/nope")

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/todos/:id", "2xx")); got != 2 {
		t.Errorf("route requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", unmatchedRoute, "4xx")); got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}

	resp := get("http://test/metrics")
	if resp.StatusCode() != 200 {
		t.Fatalf("/metrics status = %d, want 200", resp.StatusCode())
	}
	body := string(resp.Body())
	for _, name := range []string{"todo_http_requests_total", "todo_server_normal_ccu", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Errorf("/metrics body missing %s", name)
		}
	}
}
