package devapi_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"leadboard/devapi"
	"leadboard/domain"
	"leadboard/internal/testutil"
)

type apiEnvelope struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message"`
	Data       sonic.NoCopyRawMessage `json:"data"`
	Pagination *domain.Pagination     `json:"pagination"`
}

type harness struct {
	e      *echo.Echo
	store  *devapi.MemoryStore
	outbox *devapi.MemoryOutbox
	hook   *test.Hook
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	store := devapi.NewMemoryStore()
	outbox := &devapi.MemoryOutbox{}
	e := devapi.NewRouter(devapi.Deps{
		Tasks:    store,
		Contacts: store,
		Auth:     devapi.NewSharedSecretAuth([]byte(testutil.Secret)),
		Outbox:   outbox,
		Logger:   logger,
	})
	return &harness{e: e, store: store, outbox: outbox, hook: hook, token: testutil.MustToken(devapi.AgentUserID)}
}

func (h *harness) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if h.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+h.token)
	}
	return h.serve(t, req)
}

func (h *harness) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	var env apiEnvelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) && rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env apiEnvelope) T {
	t.Helper()
	var v T
	if err := sonic.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

func (h *harness) createTask(t *testing.T, body map[string]any) domain.Task {
	t.Helper()
	rec, env := h.do(t, http.MethodPost, "/api/tasks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d body %s", rec.Code, rec.Body.String())
	}
	return decodeData[domain.Task](t, env)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	h := newHarness(t)
	h.token = ""
	rec, env := h.do(t, http.MethodGet, "/api/tasks", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.Success || !strings.Contains(env.Message, "missing authorization header") {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestCreateTaskAppliesDefaults(t *testing.T) {
	h := newHarness(t)
	task := h.createTask(t, map[string]any{"title": "Call Ada"})

	if task.ID == "" {
		t.Fatalf("expected server-assigned id")
	}
	if task.Status != domain.StatusTodo || task.Priority != domain.PriorityMedium || task.Type != domain.TypeTask {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	if task.CreatedBy == nil || task.CreatedBy.ID != devapi.AgentUserID || task.CreatedBy.Name == "" {
		t.Fatalf("expected populated creator, got %+v", task.CreatedBy)
	}

	second := h.createTask(t, map[string]any{"title": "Email Bob"})
	if second.Position != 1 {
		t.Fatalf("expected second todo task at position 1, got %d", second.Position)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	h := newHarness(t)
	cases := map[string]struct {
		body map[string]any
		msg  string
	}{
		"missing title": {map[string]any{"description": "x"}, "Title is required"},
		"blank title":   {map[string]any{"title": "  "}, "Title is required"},
		"bad status":    {map[string]any{"title": "x", "status": "archived"}, "Invalid status"},
		"bad priority":  {map[string]any{"title": "x", "priority": "asap"}, "Invalid priority"},
		"bad progress":  {map[string]any{"title": "x", "progress": 140}, "Progress must be between 0 and 100"},
		"bad task type": {map[string]any{"title": "x", "type": "chore"}, "Invalid task type"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, env := h.do(t, http.MethodPost, "/api/tasks", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if env.Success || env.Message != tc.msg {
				t.Fatalf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestListTasksFiltersAndPaginates(t *testing.T) {
	h := newHarness(t)
	h.createTask(t, map[string]any{"title": "Call Ada", "priority": "high"})
	h.createTask(t, map[string]any{"title": "Email Bob", "description": "about the call"})
	h.createTask(t, map[string]any{"title": "Send quote", "status": "done"})

	rec, env := h.do(t, http.MethodGet, "/api/tasks?search=CALL", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	tasks := decodeData[[]domain.Task](t, env)
	if len(tasks) != 2 || tasks[0].Title != "Call Ada" || tasks[1].Title != "Email Bob" {
		t.Fatalf("unexpected search result: %+v", tasks)
	}

	_, env = h.do(t, http.MethodGet, "/api/tasks?status=done", nil)
	if tasks := decodeData[[]domain.Task](t, env); len(tasks) != 1 || tasks[0].Title != "Send quote" {
		t.Fatalf("unexpected status filter result: %+v", tasks)
	}

	_, env = h.do(t, http.MethodGet, "/api/tasks?page=2&limit=2", nil)
	tasks = decodeData[[]domain.Task](t, env)
	if len(tasks) != 1 || tasks[0].Title != "Send quote" {
		t.Fatalf("unexpected second page: %+v", tasks)
	}
	want := domain.Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}
	if env.Pagination == nil || *env.Pagination != want {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}

	_, env = h.do(t, http.MethodGet, "/api/tasks?sortBy=priority&sortOrder=desc", nil)
	tasks = decodeData[[]domain.Task](t, env)
	if tasks[0].Title != "Call Ada" {
		t.Fatalf("expected high priority first, got %+v", tasks)
	}

	rec, _ = h.do(t, http.MethodGet, "/api/tasks?status=archived", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status filter, got %d", rec.Code)
	}
}

func TestTaskPatchRoutes(t *testing.T) {
	h := newHarness(t)
	task := h.createTask(t, map[string]any{"title": "Call Ada"})
	base := "/api/tasks/" + task.ID

	rec, env := h.do(t, http.MethodPatch, base+"/status", map[string]any{"status": "done"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	got := decodeData[domain.Task](t, env)
	if got.Status != domain.StatusDone || got.Column != "done" || got.Progress != 100 {
		t.Fatalf("unexpected task after status patch: %+v", got)
	}

	_, env = h.do(t, http.MethodPatch, base+"/priority", map[string]any{"priority": "urgent"})
	if got := decodeData[domain.Task](t, env); got.Priority != domain.PriorityUrgent {
		t.Fatalf("unexpected priority: %s", got.Priority)
	}

	_, env = h.do(t, http.MethodPatch, base+"/assign", map[string]any{"assignedTo": devapi.AdminUserID})
	got = decodeData[domain.Task](t, env)
	if got.AssigneeID() != devapi.AdminUserID || got.AssignedTo.Email != "admin@example.com" {
		t.Fatalf("expected populated assignee, got %+v", got.AssignedTo)
	}
	_, env = h.do(t, http.MethodPatch, base+"/assign", map[string]any{"assignedTo": nil})
	if got := decodeData[domain.Task](t, env); got.AssignedTo != nil {
		t.Fatalf("expected unassigned task, got %+v", got.AssignedTo)
	}

	_, env = h.do(t, http.MethodPatch, base+"/move", map[string]any{"column": "review", "position": 3})
	got = decodeData[domain.Task](t, env)
	if got.Status != domain.StatusReview || got.Column != "review" || got.Position != 3 {
		t.Fatalf("unexpected task after move: %+v", got)
	}

	_, env = h.do(t, http.MethodPost, base+"/comments", map[string]any{"text": "left a voicemail"})
	got = decodeData[domain.Task](t, env)
	if len(got.Comments) != 1 || got.Comments[0].User == nil || got.Comments[0].User.ID != devapi.AgentUserID {
		t.Fatalf("unexpected comments: %+v", got.Comments)
	}

	h.do(t, http.MethodPost, base+"/checklist", map[string]any{"item": "find number"})
	_, env = h.do(t, http.MethodPatch, base+"/checklist/0/complete", nil)
	got = decodeData[domain.Task](t, env)
	if len(got.Checklist) != 1 || !got.Checklist[0].Completed || got.Checklist[0].CompletedAt == nil {
		t.Fatalf("unexpected checklist: %+v", got.Checklist)
	}

	rec, env = h.do(t, http.MethodPatch, base+"/checklist/5/complete", nil)
	if rec.Code != http.StatusBadRequest || env.Message != "Invalid checklist item index" {
		t.Fatalf("expected index error, got %d %+v", rec.Code, env)
	}
}

func TestTaskNotFoundAndDelete(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(t, http.MethodGet, "/api/tasks/missing", nil)
	if rec.Code != http.StatusNotFound || env.Message != "Task not found" {
		t.Fatalf("expected 404 Task not found, got %d %+v", rec.Code, env)
	}

	task := h.createTask(t, map[string]any{"title": "Temp"})
	rec, env = h.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("delete: %d %+v", rec.Code, env)
	}
	rec, _ = h.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected second delete to 404, got %d", rec.Code)
	}
}

func TestBulkTemplatesAndStats(t *testing.T) {
	h := newHarness(t)
	a := h.createTask(t, map[string]any{"title": "A"})
	b := h.createTask(t, map[string]any{"title": "B"})

	rec, env := h.do(t, http.MethodPatch, "/api/tasks/bulk", map[string]any{
		"taskIds": []string{a.ID, b.ID, "missing"},
		"updates": map[string]any{"status": "done"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk: %d %s", rec.Code, rec.Body.String())
	}
	res := decodeData[struct {
		Matched  int `json:"matched"`
		Modified int `json:"modified"`
	}](t, env)
	if res.Matched != 2 || res.Modified != 2 {
		t.Fatalf("unexpected bulk result: %+v", res)
	}

	rec, env = h.do(t, http.MethodPost, "/api/tasks/templates/follow_up", map[string]any{
		"overrides": map[string]any{"title": "Follow up with Ada"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("template: %d %s", rec.Code, rec.Body.String())
	}
	tmpl := decodeData[domain.Task](t, env)
	if tmpl.Title != "Follow up with Ada" || tmpl.Type != domain.TypeFollowUp || tmpl.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected templated task: %+v", tmpl)
	}
	rec, _ = h.do(t, http.MethodPost, "/api/tasks/templates/nope", map[string]any{})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected unknown template 404, got %d", rec.Code)
	}

	_, env = h.do(t, http.MethodGet, "/api/tasks/stats", nil)
	st := decodeData[domain.TaskStats](t, env)
	if st.Total != 3 || st.ByStatus[domain.StatusDone] != 2 || st.ByStatus[domain.StatusTodo] != 1 || st.CompletedThisWeek != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestContactsCRUDAndPagination(t *testing.T) {
	h := newHarness(t)
	for i, name := range []string{"Ada", "Bob", "Cy"} {
		rec, _ := h.do(t, http.MethodPost, "/api/contacts", map[string]any{
			"fullName":    name,
			"email":       strings.ToLower(name) + "@example.com",
			"phoneNumber": "+1555000000" + string(rune('0'+i)),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create contact: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec, env := h.do(t, http.MethodPost, "/api/contacts", map[string]any{"fullName": "No Phone", "email": "np@example.com"})
	if rec.Code != http.StatusBadRequest || env.Message != "Please provide fullName, email and phoneNumber" {
		t.Fatalf("expected required-field error, got %d %+v", rec.Code, env)
	}
	rec, env = h.do(t, http.MethodPost, "/api/contacts", map[string]any{"fullName": "Ada 2", "email": "ADA@example.com", "phoneNumber": "1"})
	if rec.Code != http.StatusBadRequest || env.Message != "Contact with this email already exists" {
		t.Fatalf("expected duplicate email error, got %d %+v", rec.Code, env)
	}

	_, env = h.do(t, http.MethodGet, "/api/contacts?page=2&limit=2", nil)
	page := decodeData[[]domain.Contact](t, env)
	if len(page) != 1 || page[0].FullName != "Cy" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if env.Pagination == nil || env.Pagination.Total != 3 || env.Pagination.Pages != 2 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}

	_, env = h.do(t, http.MethodGet, "/api/contacts", nil)
	if env.Pagination == nil || env.Pagination.Limit != 10 {
		t.Fatalf("expected default limit 10, got %+v", env.Pagination)
	}
}

func TestContactsImportAndExport(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(t, http.MethodPost, "/api/contacts/import", map[string]any{
		"contacts": []map[string]any{
			{"fullName": "Ada", "email": "ada@example.com", "phoneNumber": "+15550001"},
			{"fullName": "Bob", "email": "", "phoneNumber": "+15550002"},
			{"fullName": "Ada Again", "email": "ada@example.com", "phoneNumber": "+15550003"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}
	res := decodeData[struct {
		Imported int      `json:"imported"`
		Failed   int      `json:"failed"`
		Errors   []string `json:"errors"`
	}](t, env)
	if res.Imported != 1 || res.Failed != 2 || len(res.Errors) != 2 {
		t.Fatalf("unexpected import result: %+v", res)
	}

	rec, _ = h.do(t, http.MethodGet, "/api/contacts/export?format=csv", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv") {
		t.Fatalf("csv export: %d %s", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.HasPrefix(rec.Body.String(), "Full Name,Email,Phone Number") || !strings.Contains(rec.Body.String(), "ada@example.com") {
		t.Fatalf("unexpected csv: %s", rec.Body.String())
	}

	rec, _ = h.do(t, http.MethodGet, "/api/contacts/export?format=xml", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected unsupported format 400, got %d", rec.Code)
	}
}

func TestDirectoryRoutes(t *testing.T) {
	h := newHarness(t)
	_, env := h.do(t, http.MethodGet, "/api/auth/me", nil)
	me := decodeData[domain.User](t, env)
	if me.ID != devapi.AgentUserID || me.Role == nil || me.Role.Name != "Sales Agent" {
		t.Fatalf("unexpected me: %+v", me)
	}

	h.token = testutil.MustToken("stranger")
	_, env = h.do(t, http.MethodGet, "/api/auth/me", nil)
	me = decodeData[domain.User](t, env)
	pol := domain.NewPolicy(&me)
	if !pol.Can("tasks", "read") || pol.Can("tasks", "delete") {
		t.Fatalf("unknown users should be read-only, got %+v", me.Role)
	}

	_, env = h.do(t, http.MethodGet, "/api/roles/permissions", nil)
	perms := decodeData[[]domain.Permission](t, env)
	if len(perms) == 0 {
		t.Fatalf("expected permission listing")
	}
}

func TestMessagingGoesThroughOutbox(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.do(t, http.MethodPost, "/api/sms/send", map[string]any{
		"to": "+15550001", "body": "hello", "relatedType": "contact", "relatedId": "c1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sms: %d %s", rec.Code, rec.Body.String())
	}
	h.do(t, http.MethodPost, "/api/emails/send", map[string]any{"to": "ada@example.com", "subject": "Hi", "body": "hello"})

	msgs := h.outbox.Messages()
	if len(msgs) != 2 || msgs[0].Kind != "sms" || msgs[1].Kind != "email" || msgs[0].UserID != devapi.AgentUserID {
		t.Fatalf("unexpected outbox: %+v", msgs)
	}

	_, env := h.do(t, http.MethodGet, "/api/sms/conversation/contact/c1", nil)
	if conv := decodeData[[]domain.SMSMessage](t, env); len(conv) != 1 || conv[0].Body != "hello" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}

	rec, env = h.do(t, http.MethodPost, "/api/sms/send", map[string]any{"to": "", "body": "x"})
	if rec.Code != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400 for missing recipient, got %d", rec.Code)
	}
}

func TestMeetingsAndCalendar(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(t, http.MethodPost, "/api/meetings", map[string]any{
		"title": "Demo", "startTime": "2026-03-01T10:00:00Z", "endTime": "2026-03-01T09:00:00Z",
	})
	if rec.Code != http.StatusBadRequest || env.Message != "End time must be after start time" {
		t.Fatalf("expected end-before-start error, got %d %+v", rec.Code, env)
	}

	h.do(t, http.MethodGet, "/api/google-calendar/callback?code=abc", nil)
	_, env = h.do(t, http.MethodGet, "/api/google-calendar/status", nil)
	if st := decodeData[domain.CalendarStatus](t, env); !st.Connected {
		t.Fatalf("expected connected calendar")
	}

	_, env = h.do(t, http.MethodPost, "/api/meetings", map[string]any{
		"title": "Demo", "startTime": "2026-03-01T10:00:00Z", "endTime": "2026-03-01T11:00:00Z", "syncToGoogleCalendar": true,
	})
	m := decodeData[domain.Meeting](t, env)
	if m.GoogleEventID == "" {
		t.Fatalf("expected calendar event id for synced meeting")
	}

	h.do(t, http.MethodPost, "/api/google-calendar/disconnect", nil)
	_, env = h.do(t, http.MethodGet, "/api/google-calendar/status", nil)
	if st := decodeData[domain.CalendarStatus](t, env); st.Connected {
		t.Fatalf("expected disconnected calendar")
	}
}

func TestUploadLogo(t *testing.T) {
	h := newHarness(t)
	upload := func(name string) (*httptest.ResponseRecorder, apiEnvelope) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, _ := mw.CreateFormFile("logo", name)
		_, _ = part.Write([]byte("\x89PNG fake"))
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/company/logo", &buf)
		req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+h.token)
		return h.serve(t, req)
	}

	rec, env := upload("logo.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	if co := decodeData[domain.Company](t, env); co.LogoURL == "" {
		t.Fatalf("expected logo url")
	}
	rec, _ = upload("logo.exe")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected non-image to be rejected, got %d", rec.Code)
	}
}

func TestGzipRequestBody(t *testing.T) {
	h := newHarness(t)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"title":"Compressed"}`))
	_ = zw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+h.token)
	rec, env := h.serve(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("gzip create: %d %s", rec.Code, rec.Body.String())
	}
	if task := decodeData[domain.Task](t, env); task.Title != "Compressed" {
		t.Fatalf("unexpected title: %s", task.Title)
	}

	bad := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader("not gzip"))
	bad.Header.Set(echo.HeaderContentEncoding, "gzip")
	bad.Header.Set(echo.HeaderAuthorization, "Bearer "+h.token)
	if rec, _ := h.serve(t, bad); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid gzip to be rejected, got %d", rec.Code)
	}
}

func TestRequestMetricsAreLogged(t *testing.T) {
	h := newHarness(t)
	h.createTask(t, map[string]any{"title": "Call Ada"})
	h.hook.Reset()

	h.do(t, http.MethodGet, "/api/tasks", nil)
	entry := h.hook.LastEntry()
	if entry == nil || entry.Message != "api.request.metrics" {
		t.Fatalf("expected metrics entry, got %+v", entry)
	}
	if entry.Data["route"] != "/api/tasks" || entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected fields: %+v", entry.Data)
	}
	if entry.Data["records_returned"] != 1 || entry.Data["user"] != devapi.AgentUserID {
		t.Fatalf("unexpected fields: %+v", entry.Data)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(t, http.MethodGet, "/api/nope", nil)
	if rec.Code != http.StatusNotFound || env.Success || env.Message == "" {
		t.Fatalf("expected enveloped 404, got %d %s", rec.Code, rec.Body.String())
	}
}
