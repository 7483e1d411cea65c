package api

import (
	"github.com/starford/casefile/internal/caseservice"
	"github.com/starford/casefile/internal/index"
)

// CreateCaseRequest is the request body for opening a case.
type CreateCaseRequest struct {
	Summary string `json:"summary" example:"VPN concentrator flapping" validate:"required"`
	Date    string `json:"date,omitempty" example:"yesterday"`
}

// LogCaseRequest is the request body for appending a note to a case.
type LogCaseRequest struct {
	Note string `json:"note" example:"rebooted the standby unit" validate:"required"`
}

// CaseDetail is the full case response type (aliased from the domain layer).
type CaseDetail = caseservice.CaseDetail

// CaseListItem is a lightweight item in a list response (aliased from the domain layer).
type CaseListItem = caseservice.CaseListItem

// CaseListResponse wraps case listings.
type CaseListResponse struct {
	Cases []CaseListItem `json:"cases" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
