package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/casefile/internal/caseservice"
	"github.com/starford/casefile/internal/testutil"
)

// testEnv sets up a temp case base, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	_, router := testEnvWithBase(t, authToken)
	return router
}

func testEnvWithBase(t *testing.T, authToken string) (string, http.Handler) {
	t.Helper()
	base, cases := testutil.TestStore(t)
	db := testutil.TestDB(t)
	svc := caseservice.NewService(cases, db, slog.New(slog.NewTextHandler(io.Discard, nil)), 10)
	return base, NewRouter(svc, authToken != "", authToken)
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetCase(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "db1 disk full"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created CaseDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID != "2024-01-01/A" {
		t.Errorf("id = %q", created.ID)
	}

	w = do(t, router, http.MethodGet, "/cases/2024-01-01/A", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got CaseDetail
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Summary != "db1 disk full" {
		t.Errorf("summary = %q", got.Summary)
	}
}

func TestCreateCaseWithDate(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "late report", Date: "2023-12-24"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created CaseDetail
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Ref.DateBucket != "2023-12-24" {
		t.Errorf("bucket = %q", created.Ref.DateBucket)
	}

	w = do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "x", Date: "qwerty"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}
}

func TestCreateCaseValidation(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/cases", CreateCaseRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty summary = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/cases", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestCreateCaseSeriesExhausted(t *testing.T) {
	router := testEnv(t, "")
	for range 3 {
		if w := do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "again"}); w.Code != http.StatusCreated {
			t.Fatalf("create = %d", w.Code)
		}
	}
	w := do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "one too many"})
	if w.Code != http.StatusConflict {
		t.Errorf("exhausted = %d, want 409", w.Code)
	}
}

func TestLogCase(t *testing.T) {
	router := testEnv(t, "")
	do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "printer on fire"})

	w := do(t, router, http.MethodPost, "/cases/2024-01-01/A/log", LogCaseRequest{Note: "extinguisher used"})
	if w.Code != http.StatusOK {
		t.Fatalf("log status = %d, body = %s", w.Code, w.Body.String())
	}
	var c CaseDetail
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if !strings.Contains(c.Body, ": extinguisher used\n") {
		t.Errorf("body = %q", c.Body)
	}

	w = do(t, router, http.MethodPost, "/cases/2024-01-01/A/log", LogCaseRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty note = %d, want 400", w.Code)
	}
}

func TestLogCase_NotFound(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/cases/2024-01-01/A/log", LogCaseRequest{Note: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("log missing = %d, want 404", w.Code)
	}
}

func TestLogCase_NoNotesFile(t *testing.T) {
	base, router := testEnvWithBase(t, "")
	if err := os.MkdirAll(filepath.Join(base, "2024-01-01", "B"), 0o755); err != nil {
		t.Fatal(err)
	}
	w := do(t, router, http.MethodPost, "/cases/2024-01-01/B/log", LogCaseRequest{Note: "x"})
	if w.Code != http.StatusConflict {
		t.Errorf("log without notes = %d, want 409", w.Code)
	}
}

func TestGetCase_NotFound(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/cases/2024-01-01/Q", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing case = %d, want 404", w.Code)
	}
}

func TestGetCase_InvalidRef(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/cases/2024-01-01/..", nil)
	if w.Code != http.StatusBadRequest && w.Code != http.StatusNotFound {
		t.Errorf("dot-dot serial = %d, want 400 or 404", w.Code)
	}
	w = do(t, router, http.MethodGet, "/cases/2024-01-01/%2E%2E", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("encoded dot-dot serial = %d, want 400", w.Code)
	}
}

func TestListCases(t *testing.T) {
	router := testEnv(t, "")
	do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "one"})
	do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "two"})

	w := do(t, router, http.MethodGet, "/cases?sort=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp CaseListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || resp.Cases[0].ID != "2024-01-01/A" || resp.Cases[1].Summary != "two" {
		t.Errorf("list = %+v", resp)
	}
}

func TestListCases_EmptyBase(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/cases", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp CaseListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 0 || resp.Cases == nil {
		t.Errorf("list = %+v", resp)
	}
}

func TestLatestCase(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/cases/latest", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("latest on empty base = %d, want 404", w.Code)
	}

	do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "one"})
	do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "two"})
	w = do(t, router, http.MethodGet, "/cases/latest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("latest status = %d", w.Code)
	}
	var c CaseDetail
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if c.ID != "2024-01-01/B" {
		t.Errorf("latest = %q", c.ID)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "kafka lag"})
	do(t, router, http.MethodPost, "/cases", CreateCaseRequest{Summary: "printer jam"})

	w := do(t, router, http.MethodGet, "/search?q=kafka", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].ID != "2024-01-01/A" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	b, _ := json.Marshal(CreateCaseRequest{Summary: "authed"})
	req := httptest.NewRequest(http.MethodPost, "/cases", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := do(t, router, http.MethodGet, "/cases", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/cases", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/cases", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}
