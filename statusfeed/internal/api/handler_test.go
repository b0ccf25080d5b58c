package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/auth"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/reconcile"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/snapshot"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/store"
)

const testSecret = "test-secret"

type testEnv struct {
	router   *gin.Engine
	verifier *auth.Verifier
	logs     *store.MemoryLogStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	statuses := store.NewMemoryStatusStore()
	logs := store.NewMemoryLogStore(200)
	verifier := auth.NewVerifier(testSecret, 120*time.Second)

	r := gin.New()
	r.GET("/health", HealthHandler())
	r.POST("/api/ingest", IngestHandler(verifier, reconcile.NewReconciler(statuses, logs)))
	r.GET("/api/snapshot", SnapshotHandler(snapshot.NewAssembler(statuses, logs, 200)))
	r.POST("/api/logs/:id/ack", AckHandler(logs))

	return &testEnv{router: r, verifier: verifier, logs: logs}
}

// signedIngest posts body with a valid signature for the current time.
func (e *testEnv) signedIngest(body string) *httptest.ResponseRecorder {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderNonce, "nonce-1")
	req.Header.Set(HeaderSignature, e.verifier.Sign(ts, "nonce-1", []byte(body)))

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad error body %q: %v", w.Body.String(), err)
	}
	return resp["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestIngest_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	body := `{"component":"redis","severity":"alarm"}`

	// No headers at all
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || errCode(t, w) != "missing_headers" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}

	// Wrong signature over a tampered body
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req = httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderNonce, "n")
	req.Header.Set(HeaderSignature, env.verifier.Sign(ts, "n", []byte(body+" ")))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || errCode(t, w) != "bad_signature" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}

	// Stale timestamp, correctly signed
	stale := strconv.FormatInt(time.Now().UnixMilli()-121_000, 10)
	req = httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	req.Header.Set(HeaderTimestamp, stale)
	req.Header.Set(HeaderNonce, "n")
	req.Header.Set(HeaderSignature, env.verifier.Sign(stale, "n", []byte(body)))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || errCode(t, w) != "timestamp_skew" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestIngest_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	w := env.signedIngest(`{"component":"redis"}`)
	if w.Code != http.StatusBadRequest || errCode(t, w) != "missing_fields" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestIngest_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	w := env.signedIngest(`{not json`)
	if w.Code != http.StatusBadRequest || errCode(t, w) != "invalid_json" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestIngestSnapshotAckFlow(t *testing.T) {
	env := newTestEnv(t)

	if w := env.signedIngest(`{"component":"Redis","severity":"alarm","reason":"timeout"}`); w.Code != http.StatusOK {
		t.Fatalf("ingest failed: %d %s", w.Code, w.Body.String())
	}

	// Snapshot shows the status and the alarm entry.
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot failed: %d", w.Code)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Statuses) != 1 || snap.Statuses[0].ID != "redis" {
		t.Fatalf("unexpected statuses %+v", snap.Statuses)
	}
	if len(snap.Logs) != 1 || snap.Logs[0].Type != model.LogTypeAlarm {
		t.Fatalf("unexpected logs %+v", snap.Logs)
	}
	if snap.GeneratedAt == 0 {
		t.Error("generatedAt missing")
	}

	// First ack succeeds and returns the flipped entry.
	ackURL := "/api/logs/" + snap.Logs[0].ID + "/ack"
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, ackURL, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("ack failed: %d %s", w.Code, w.Body.String())
	}
	var ackResp struct {
		OK  bool           `json:"ok"`
		Log model.LogEntry `json:"log"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ackResp); err != nil {
		t.Fatal(err)
	}
	if !ackResp.OK || !ackResp.Log.Acknowledged {
		t.Fatalf("unexpected ack response %s", w.Body.String())
	}

	// Second ack and unknown id fail identically.
	for _, url := range []string{ackURL, "/api/logs/no-such-id/ack"} {
		w = httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, nil))
		if w.Code != http.StatusBadRequest || errCode(t, w) != "not_ackable" {
			t.Fatalf("%s: got %d %s", url, w.Code, w.Body.String())
		}
	}
}

func TestIngest_RepeatDoesNotGrowLogs(t *testing.T) {
	env := newTestEnv(t)
	body := `{"component":"db","severity":"warning","detail":"slow"}`
	for i := 0; i < 3; i++ {
		if w := env.signedIngest(body); w.Code != http.StatusOK {
			t.Fatalf("ingest %d failed: %d", i, w.Code)
		}
	}
	entries, _ := env.logs.Recent(context.Background(), 0)
	if len(entries) != 1 {
		t.Fatalf("expected one entry after repeats, got %d", len(entries))
	}
}
