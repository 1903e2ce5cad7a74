package models

// DefaultEvaluationCriteria is used when an evaluation request names none.
var DefaultEvaluationCriteria = []string{"accuracy", "tokens", "responseTime"}

// EvaluationRequest runs one prompt against several registered models.
type EvaluationRequest struct {
	UserID   string   `json:"userId"`
	Prompt   string   `json:"prompt"`
	ModelIDs []string `json:"modelIds"`
	Criteria []string `json:"evaluationCriteria"`
}
