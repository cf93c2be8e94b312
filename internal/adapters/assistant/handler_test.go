package assistant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"splitcore/internal/core"
)

func newTestHandler() *Handler {
	return NewHandler(core.NewInMemoryService(core.NewDefaultRulesEngine()))
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerExecuteCreateSession(t *testing.T) {
	h := newTestHandler()
	rec := postJSON(t, h, "/api/ai/execute", `{
		"intent": "create_session",
		"ai_data": {
			"session": {"title": "Dinner"},
			"people": [{"name": "Alice", "items": [{"name": "Pasta", "price": 12.5}]}]
		}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var result core.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.OK || result.SessionID == 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Message != "Created session 'Dinner' with 1 people and 1 items." {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestHandlerExecuteValidationFailureIs400(t *testing.T) {
	h := newTestHandler()
	rec := postJSON(t, h, "/api/ai/execute", `{"intent": "create_session", "ai_data": {}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	var result core.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.OK || result.Message != "Validation failed." {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHandlerExecuteRejectsBadEnvelope(t *testing.T) {
	h := newTestHandler()
	cases := []struct {
		name string
		body string
		want string
	}{
		{"not json", `not-json`, "request body must be a JSON object"},
		{"extra key", `{"intent": "general_inquiry", "ai_data": {}, "debug": 1}`, "unexpected top-level key"},
		{"unknown intent", `{"intent": "nuke", "ai_data": {}}`, "unknown intent: nuke"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/ai/execute", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Fatalf("body %q missing %q", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestHandlerSessionContext(t *testing.T) {
	h := newTestHandler()
	rec := postJSON(t, h, "/api/ai/execute", `{
		"intent": "create_session",
		"ai_data": {"people": [{"name": "Alice"}]}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed status %d", rec.Code)
	}
	var created core.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/1/context", nil)
	ctxRec := httptest.NewRecorder()
	h.ServeHTTP(ctxRec, req)
	if ctxRec.Code != http.StatusOK {
		t.Fatalf("status %d", ctxRec.Code)
	}
	var sc core.SessionContext
	if err := json.Unmarshal(ctxRec.Body.Bytes(), &sc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sc.SessionID != created.SessionID || len(sc.People) != 1 {
		t.Fatalf("unexpected context: %+v", sc)
	}
}

func TestHandlerSessionContextUnknownSessionIsEmpty(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/404/context", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var sc core.SessionContext
	if err := json.Unmarshal(rec.Body.Bytes(), &sc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sc.SessionID != 404 || len(sc.People) != 0 {
		t.Fatalf("unexpected context: %+v", sc)
	}
}

func TestHandlerRouting(t *testing.T) {
	h := newTestHandler()
	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/ai/execute", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/sessions/abc/context", http.StatusBadRequest},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: status %d want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}
}

func TestHandlerWithoutEngine(t *testing.T) {
	h := &Handler{}
	rec := postJSON(t, h, "/api/ai/execute", `{}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}
