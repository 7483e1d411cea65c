package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casefile/internal/models"
)

// fakeJira serves the issue endpoint and records what it received.
func fakeJira(t *testing.T, status int, got *issueRequest) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/rest/api/2/issue/", func(w http.ResponseWriter, req *http.Request) {
		user, key, ok := req.BasicAuth()
		if !ok || user != "me@evilcorp.example" || key != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(req.Body).Decode(got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusCreated {
			_, _ = w.Write([]byte(`{"id":"10001","key":"OPS-42"}`))
		} else {
			_, _ = w.Write([]byte(`{"errorMessages":["project is required"]}`))
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) Config {
	return Config{
		User:    "me@evilcorp.example",
		Key:     "secret",
		Project: "OPS",
		BaseURL: baseURL,
	}
}

func TestPrepareTicket(t *testing.T) {
	c := models.Case{
		Ref:     models.CaseRef{DateBucket: "2024-01-01", Serial: "A"},
		Summary: "12:00:01:  printer on fire",
		Body:    "## 12:05:00: extinguished\n",
	}
	tk := PrepareTicket(c)
	if tk.Title != "2024-01-01/A: printer on fire" {
		t.Errorf("title = %q", tk.Title)
	}
	if tk.Description != c.Body {
		t.Errorf("description = %q", tk.Description)
	}
}

func TestPostCreated(t *testing.T) {
	var got issueRequest
	srv := fakeJira(t, http.StatusCreated, &got)
	client := NewClient(testConfig(srv.URL), srv.Client())

	issue, err := client.Post(context.Background(), Ticket{Title: "2024-01-01/A: disk full", Description: "body"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if issue.Key != "OPS-42" {
		t.Errorf("key = %q", issue.Key)
	}
	if issue.URL != srv.URL+"/browse/OPS-42" {
		t.Errorf("url = %q", issue.URL)
	}
	if got.Fields.Project.Key != "OPS" || got.Fields.IssueType.Name != DefaultIssueType {
		t.Errorf("fields = %+v", got.Fields)
	}
	if got.Fields.Summary != "2024-01-01/A: disk full" || got.Fields.Description != "body" {
		t.Errorf("fields = %+v", got.Fields)
	}
}

func TestPostRejected(t *testing.T) {
	var got issueRequest
	srv := fakeJira(t, http.StatusBadRequest, &got)
	client := NewClient(testConfig(srv.URL), srv.Client())

	_, err := client.Post(context.Background(), Ticket{Title: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "project is required") {
		t.Errorf("error = %v", err)
	}
}

func TestPostBadCredentials(t *testing.T) {
	var got issueRequest
	srv := fakeJira(t, http.StatusCreated, &got)
	cfg := testConfig(srv.URL)
	cfg.Key = "wrong"
	_, err := NewClient(cfg, srv.Client()).Post(context.Background(), Ticket{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want 401", err)
	}
}

func TestBaseURLFromDomain(t *testing.T) {
	c := NewClient(Config{Domain: "evilcorp.atlassian.net"}, nil)
	if got := c.baseURL(); got != "https://evilcorp.atlassian.net" {
		t.Errorf("baseURL = %q", got)
	}
}
