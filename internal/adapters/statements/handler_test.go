package statements

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"splitcore/internal/blob"
)

func newHandlerFixture(t *testing.T) (*Handler, *Worker, int64) {
	t.Helper()
	svc, sessionID := seedService(t)
	worker := NewWorker(svc, blob.NewMemory(), nil)
	worker.Start()
	t.Cleanup(func() {
		if err := worker.Stop(context.Background()); err != nil {
			t.Errorf("stop: %v", err)
		}
	})
	return NewHandler(worker), worker, sessionID
}

func TestHandlerEnqueueAndPoll(t *testing.T) {
	h, worker, sessionID := newHandlerFixture(t)

	body := `{"session_id": ` + jsonInt(sessionID) + `, "formats": ["json"], "requested_by": "ops"}`
	req := httptest.NewRequest(http.MethodPost, "/api/statements/exports", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Export Record `json:"export"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Export.ID == "" || created.Export.Status != StatusQueued {
		t.Fatalf("unexpected export record: %+v", created.Export)
	}

	waitForExport(t, worker, created.Export.ID)

	pollReq := httptest.NewRequest(http.MethodGet, "/api/statements/exports/"+created.Export.ID, nil)
	pollRec := httptest.NewRecorder()
	h.ServeHTTP(pollRec, pollReq)
	if pollRec.Code != http.StatusOK {
		t.Fatalf("poll status %d", pollRec.Code)
	}
	var polled struct {
		Export Record `json:"export"`
	}
	if err := json.Unmarshal(pollRec.Body.Bytes(), &polled); err != nil {
		t.Fatalf("decode poll: %v", err)
	}
	if polled.Export.Status != StatusSucceeded || len(polled.Export.Artifacts) != 1 {
		t.Fatalf("unexpected polled record: %+v", polled.Export)
	}
}

func TestHandlerErrors(t *testing.T) {
	h, _, _ := newHandlerFixture(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing session", http.MethodPost, "/api/statements/exports", `{}`, http.StatusBadRequest},
		{"bad payload", http.MethodPost, "/api/statements/exports", `not-json`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/api/statements/exports", "", http.StatusMethodNotAllowed},
		{"unknown export", http.MethodGet, "/api/statements/exports/nope", "", http.StatusNotFound},
		{"unknown path", http.MethodGet, "/api/statements", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status %d want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHandlerWithoutScheduler(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "/api/statements/exports", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
