// Package jira promotes a case to an issue through the Jira REST API.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/casefile/internal/models"
	"github.com/starford/casefile/internal/notes"
)

// DefaultIssueType is used when no issue type is configured.
const DefaultIssueType = "Incident"

// Config holds credentials and the target project.
type Config struct {
	User      string
	Key       string
	Project   string
	IssueType string
	Domain    string // e.g. evilcorp.atlassian.net
	BaseURL   string // overrides https://<Domain>
}

// Ticket is the title and description filed for a case.
type Ticket struct {
	Title       string
	Description string
}

// PrepareTicket builds the ticket for c: the title is the case id followed
// by the summary without its time stamp, the description is the log body.
func PrepareTicket(c models.Case) Ticket {
	return Ticket{
		Title:       c.Ref.String() + ": " + notes.StripStamp(c.Summary),
		Description: c.Body,
	}
}

// Issue identifies a created issue.
type Issue struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Client posts issues to Jira.
type Client struct {
	http *http.Client
	cfg  Config
}

// NewClient creates a Client. A nil httpClient uses a client with a 30s timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.IssueType == "" {
		cfg.IssueType = DefaultIssueType
	}
	return &Client{http: httpClient, cfg: cfg}
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	return "https://" + c.cfg.Domain
}

type issueRequest struct {
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Project     keyRef  `json:"project"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	IssueType   nameRef `json:"issuetype"`
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

// Post files t as a new issue and returns its key and browse URL.
func (c *Client) Post(ctx context.Context, t Ticket) (*Issue, error) {
	payload, err := json.Marshal(issueRequest{Fields: issueFields{
		Project:     keyRef{Key: c.cfg.Project},
		Summary:     t.Title,
		Description: t.Description,
		IssueType:   nameRef{Name: c.cfg.IssueType},
	}})
	if err != nil {
		return nil, fmt.Errorf("jira: encode issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/rest/api/2/issue/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("jira: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.User, c.cfg.Key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira: post issue: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("jira: post issue: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("jira: decode response: %w", err)
	}
	return &Issue{Key: created.Key, URL: c.baseURL() + "/browse/" + created.Key}, nil
}
