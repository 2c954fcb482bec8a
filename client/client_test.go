package client_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"leadboard/client"
	"leadboard/domain"
)

// recordingServer answers every request with status and body and remembers
// the last request it saw.
type recordingServer struct {
	*httptest.Server
	hits atomic.Int32
	last atomic.Pointer[http.Request]
}

func newRecordingServer(t *testing.T, status int, body string) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.hits.Add(1)
		rs.last.Store(r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func TestBearerHeaderOnlyWithToken(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"success":true,"data":[]}`)
	ctx := context.Background()

	c := client.New(srv.URL, client.WithTokenSource(client.StaticToken("abc.def.ghi")))
	if _, err := c.ListTasks(ctx, client.TaskQuery{}); err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if got := srv.last.Load().Header.Get("Authorization"); got != "Bearer abc.def.ghi" {
		t.Fatalf("unexpected authorization header: %q", got)
	}

	anon := client.New(srv.URL, client.WithTokenSource(client.StaticToken("")))
	if _, err := anon.ListTasks(ctx, client.TaskQuery{}); err != nil {
		t.Fatalf("anonymous list tasks should not fail client-side: %v", err)
	}
	if _, present := srv.last.Load().Header["Authorization"]; present {
		t.Fatalf("expected no authorization header without a token")
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server message", http.StatusBadRequest, `{"success":false,"message":"Title is required"}`, "Title is required"},
		{"empty message", http.StatusNotFound, `{"success":false,"message":""}`, "HTTP error! status: 404"},
		{"no message", http.StatusForbidden, `{"success":false}`, "HTTP error! status: 403"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP error! status: 502"},
		{"empty body", http.StatusInternalServerError, ``, "HTTP error! status: 500"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newRecordingServer(t, tc.status, tc.body)
			_, err := client.New(srv.URL).GetTask(context.Background(), "t1")
			var httpErr *client.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T %v", err, err)
			}
			if httpErr.Message != tc.want || httpErr.Status != tc.status {
				t.Fatalf("unexpected error: status=%d message=%q", httpErr.Status, httpErr.Message)
			}
			if client.StatusCode(err) != tc.status {
				t.Fatalf("StatusCode mismatch: %d", client.StatusCode(err))
			}
		})
	}
}

func TestSuccessEnvelopeWithoutData(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"success":true,"message":"Task deleted successfully"}`)
	if err := client.New(srv.URL).DeleteTask(context.Background(), "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if srv.last.Load().Method != http.MethodDelete || srv.last.Load().URL.Path != "/tasks/t1" {
		t.Fatalf("unexpected request: %s %s", srv.last.Load().Method, srv.last.Load().URL.Path)
	}
}

func TestListContactsEncodesPaging(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"success":true,"data":[{"_id":"c1","fullName":"Ada","email":"a@x.io","phoneNumber":"1"}],"pagination":{"page":2,"limit":10,"total":11,"pages":2}}`)
	page, err := client.New(srv.URL).ListContacts(context.Background(), client.ContactQuery{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	q := srv.last.Load().URL.Query()
	if q.Get("page") != "2" || q.Get("limit") != "10" || len(q) != 2 {
		t.Fatalf("unexpected query: %s", srv.last.Load().URL.RawQuery)
	}
	want := domain.Pagination{Page: 2, Limit: 10, Total: 11, Pages: 2}
	if page.Pagination == nil || *page.Pagination != want {
		t.Fatalf("pagination not passed through: %+v", page.Pagination)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "c1" {
		t.Fatalf("unexpected data: %+v", page.Data)
	}
}

func TestTaskQueryEncoding(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"success":true,"data":[]}`)
	_, err := client.New(srv.URL).ListTasks(context.Background(), client.TaskQuery{
		Status:    domain.StatusInProgress,
		Search:    "call ada",
		SortBy:    "dueDate",
		SortOrder: "asc",
	})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	q := srv.last.Load().URL.Query()
	if q.Get("status") != "in_progress" || q.Get("search") != "call ada" || q.Get("sortBy") != "dueDate" || q.Has("page") {
		t.Fatalf("unexpected query: %s", srv.last.Load().URL.RawQuery)
	}
}

func TestGuardsIssueNoRequest(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"success":true}`)
	c := client.New(srv.URL)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		want error
	}{
		{"get empty id", func() error { _, err := c.GetTask(ctx, ""); return err }, client.ErrMissingID},
		{"bad status", func() error { _, err := c.UpdateTaskStatus(ctx, "t1", "archived"); return err }, domain.ErrInvalidStatus},
		{"bad priority", func() error { _, err := c.UpdateTaskPriority(ctx, "t1", "asap"); return err }, domain.ErrInvalidPriority},
		{"negative index", func() error { _, err := c.CompleteChecklistItem(ctx, "t1", -1); return err }, client.ErrInvalidIndex},
		{"bad type", func() error { _, err := c.CreateTask(ctx, client.TaskInput{Title: "x", Type: "chore"}); return err }, domain.ErrInvalidTaskType},
		{"bulk without ids", func() error { _, err := c.BulkUpdateTasks(ctx, nil, client.TaskUpdates{}); return err }, client.ErrMissingID},
		{"delete empty id", func() error { return c.DeleteTask(ctx, "") }, client.ErrMissingID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if n := srv.hits.Load(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestAssignSendsNullToUnassign(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		body = buf.String()
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"t1","title":"x","assignedTo":null}}`))
	}))
	defer srv.Close()

	task, err := client.New(srv.URL).AssignTask(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if body != `{"assignedTo":null}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if task.AssignedTo != nil {
		t.Fatalf("expected unassigned task")
	}
}

func TestSpansAndLogs(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	srv := newRecordingServer(t, http.StatusNotFound, `{"success":false,"message":"Task not found"}`)
	c := client.New(srv.URL, client.WithTracerProvider(tp), client.WithLogger(logger))
	if _, err := c.GetTask(context.Background(), "t1"); err == nil {
		t.Fatalf("expected error")
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /tasks/:id" {
		t.Fatalf("unexpected span name: %s", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", span.Status())
	}
	var sawStatus bool
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key("http.response.status_code") && kv.Value.AsInt64() == http.StatusNotFound {
			sawStatus = true
		}
	}
	if !sawStatus {
		t.Fatalf("missing status attribute: %v", span.Attributes())
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "api.request" || entry.Level != log.DebugLevel {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.Data["route"] != "/tasks/:id" || entry.Data["status"] != http.StatusNotFound {
		t.Fatalf("unexpected fields: %+v", entry.Data)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"success":true,"data":[]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.New(srv.URL).ListTasks(ctx, client.TaskQuery{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if client.StatusCode(err) != 0 {
		t.Fatalf("transport errors carry no status")
	}
}
