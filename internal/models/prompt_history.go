package models

import (
	"encoding/json"
	"math"
	"time"
)

// MaxHistoryPromptLength caps the prompt text stored in a history entry.
const MaxHistoryPromptLength = 10000

// Outcome summarises how many candidate models answered successfully.
type Outcome string

const (
	OutcomeSuccess Outcome = "Success"
	OutcomePartial Outcome = "Partial"
	OutcomeError   Outcome = "Error"
)

// Rating is the feedback an admin leaves on a history entry.
type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
	RatingNeutral  Rating = "neutral"
)

// ValidRating reports whether r is one of the known ratings.
func ValidRating(r Rating) bool {
	switch r {
	case RatingPositive, RatingNegative, RatingNeutral:
		return true
	}
	return false
}

var evaluationCriteria = map[string]bool{
	"accuracy":     true,
	"tokens":       true,
	"responseTime": true,
	"coherence":    true,
	"creativity":   true,
	"relevance":    true,
}

// ValidCriterion reports whether c is a supported evaluation criterion.
func ValidCriterion(c string) bool {
	return evaluationCriteria[c]
}

// ModelResult is the outcome of running a history prompt against one model.
type ModelResult struct {
	ModelID      string  `json:"modelId"`
	ModelName    string  `json:"modelName"`
	Response     string  `json:"response"`
	Accuracy     float64 `json:"accuracy"`
	Tokens       int     `json:"tokens"`
	ResponseTime int64   `json:"responseTime"` // milliseconds
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
}

// Succeeded reports whether the model produced a response. A result carrying an
// error never counts, whatever its success flag says.
func (r ModelResult) Succeeded() bool {
	return r.Success && r.Error == ""
}

// HistorySummary is derived from the results every time a history entry is saved.
type HistorySummary struct {
	TotalModels         int     `json:"totalModels"`
	SuccessfulModels    int     `json:"successfulModels"`
	BestModel           string  `json:"bestModel,omitempty"`
	BestAccuracy        float64 `json:"bestAccuracy"`
	AverageResponseTime int64   `json:"averageResponseTime"`
	TotalTokens         int     `json:"totalTokens"`
	Outcome             Outcome `json:"outcome"`
}

// Feedback is an optional rating attached to a history entry.
type Feedback struct {
	Rating    Rating    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PromptHistory records a prompt evaluated across several candidate models.
type PromptHistory struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Prompt    string         `json:"prompt"`
	Models    []string       `json:"models"`
	Criteria  []string       `json:"criteria"`
	Results   []ModelResult  `json:"results"`
	Summary   HistorySummary `json:"summary"`
	Feedback  *Feedback      `json:"feedback,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`

	// JSON string fields for DB storage
	ModelsJSON   string `json:"-"`
	CriteriaJSON string `json:"-"`
	ResultsJSON  string `json:"-"`
	SummaryJSON  string `json:"-"`
	FeedbackJSON string `json:"-"`
}

// UpdateSummary recomputes the summary from the current results.
func (h *PromptHistory) UpdateSummary() {
	if len(h.Results) == 0 {
		h.Summary = HistorySummary{Outcome: OutcomeError}
		return
	}

	var (
		successful   int
		bestModel    string
		bestAccuracy float64
		totalTime    int64
		totalTokens  int
	)
	for _, r := range h.Results {
		if !r.Succeeded() {
			continue
		}
		successful++
		totalTime += r.ResponseTime
		totalTokens += r.Tokens
		if r.Accuracy > bestAccuracy {
			bestAccuracy = r.Accuracy
			bestModel = r.ModelName
		}
	}

	outcome := OutcomeError
	switch {
	case successful == len(h.Results):
		outcome = OutcomeSuccess
	case successful > 0:
		outcome = OutcomePartial
	}

	var avg int64
	if successful > 0 {
		avg = int64(math.Round(float64(totalTime) / float64(successful)))
	}

	h.Summary = HistorySummary{
		TotalModels:         len(h.Results),
		SuccessfulModels:    successful,
		BestModel:           bestModel,
		BestAccuracy:        bestAccuracy,
		AverageResponseTime: avg,
		TotalTokens:         totalTokens,
		Outcome:             outcome,
	}
}

// PrepareForSave marshals all slice/struct fields into their JSON columns.
func (h *PromptHistory) PrepareForSave() {
	modelsBytes, _ := json.Marshal(h.Models)
	h.ModelsJSON = string(modelsBytes)

	criteriaBytes, _ := json.Marshal(h.Criteria)
	h.CriteriaJSON = string(criteriaBytes)

	resultsBytes, _ := json.Marshal(h.Results)
	h.ResultsJSON = string(resultsBytes)

	summaryBytes, _ := json.Marshal(h.Summary)
	h.SummaryJSON = string(summaryBytes)

	h.FeedbackJSON = ""
	if h.Feedback != nil {
		feedbackBytes, _ := json.Marshal(h.Feedback)
		h.FeedbackJSON = string(feedbackBytes)
	}
}

// PrepareForAPI unmarshals the JSON columns back into their typed fields.
func (h *PromptHistory) PrepareForAPI() {
	if h.ModelsJSON != "" {
		json.Unmarshal([]byte(h.ModelsJSON), &h.Models)
	}
	if h.CriteriaJSON != "" {
		json.Unmarshal([]byte(h.CriteriaJSON), &h.Criteria)
	}
	if h.ResultsJSON != "" {
		json.Unmarshal([]byte(h.ResultsJSON), &h.Results)
	}
	if h.SummaryJSON != "" {
		json.Unmarshal([]byte(h.SummaryJSON), &h.Summary)
	}
	if h.FeedbackJSON != "" {
		var fb Feedback
		if json.Unmarshal([]byte(h.FeedbackJSON), &fb) == nil {
			h.Feedback = &fb
		}
	}
	if h.Models == nil {
		h.Models = []string{}
	}
	if h.Criteria == nil {
		h.Criteria = []string{}
	}
	if h.Results == nil {
		h.Results = []ModelResult{}
	}
}

// DateRange limits history listings to recent entries.
type DateRange string

const (
	DateRangeAll   DateRange = ""
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
)

// ParseDateRange accepts the query values used by the dashboard. "all" and the
// empty string both mean no bound.
func ParseDateRange(s string) (DateRange, bool) {
	switch DateRange(s) {
	case DateRangeAll, "all":
		return DateRangeAll, true
	case DateRangeToday, DateRangeWeek, DateRangeMonth:
		return DateRange(s), true
	}
	return "", false
}

// Since returns the earliest creation time inside the range, in UTC. The zero
// time means the range is unbounded.
func (d DateRange) Since(now time.Time) time.Time {
	now = now.UTC()
	switch d {
	case DateRangeToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case DateRangeWeek:
		return now.AddDate(0, 0, -7)
	case DateRangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

// HistoryFilter narrows history listings.
type HistoryFilter struct {
	UserID  string
	Search  string
	Model   string
	Date    DateRange
	Outcome Outcome
	Page    int
	Limit   int
}

// Pagination describes the page returned by a history listing.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// OutcomeCounts breaks the total down by outcome for dashboard filters.
type OutcomeCounts struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Partial int `json:"partial"`
	Error   int `json:"error"`
}

// HistoryPage is one page of history entries plus listing metadata.
type HistoryPage struct {
	History    []PromptHistory `json:"history"`
	Pagination Pagination      `json:"pagination"`
	Filters    OutcomeCounts   `json:"filters"`
}

// HistoryOverview aggregates every history entry visible to a caller.
type HistoryOverview struct {
	TotalPrompts        int     `json:"totalPrompts"`
	SuccessfulPrompts   int     `json:"successfulPrompts"`
	PartialPrompts      int     `json:"partialPrompts"`
	ErrorPrompts        int     `json:"errorPrompts"`
	TotalTokens         int     `json:"totalTokens"`
	AverageResponseTime float64 `json:"averageResponseTime"`
	TotalModelsUsed     int     `json:"totalModelsUsed"`
	SuccessRate         int     `json:"successRate"`
	RecentActivity      int     `json:"recentActivity"`
}

// ModelUsage counts how many history entries listed a model as a candidate.
type ModelUsage struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}

// HistoryStats is the payload of the history overview endpoint.
type HistoryStats struct {
	Overview       HistoryOverview `json:"overview"`
	MostUsedModels []ModelUsage    `json:"mostUsedModels"`
}
