package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Bounds accepted for generation parameters.
const (
	MinMaxTokens = 1
	MaxMaxTokens = 100000
	MinPenalty   = -2.0
	MaxPenalty   = 2.0
)

// LLMConfig holds the tunable generation parameters of a model.
type LLMConfig struct {
	MaxTokens        int     `json:"maxTokens"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	FrequencyPenalty float64 `json:"frequencyPenalty"`
	PresencePenalty  float64 `json:"presencePenalty"`
}

// DefaultLLMConfig returns the parameters a new or reset model starts with.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		MaxTokens:        2048,
		Temperature:      0.7,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}
}

// Validate checks every parameter against its allowed range.
func (c LLMConfig) Validate() error {
	var errs []error
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		errs = append(errs, fmt.Errorf("maxTokens must be between %d and %d", MinMaxTokens, MaxMaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, errors.New("temperature must be between 0 and 2"))
	}
	if c.TopP < 0 || c.TopP > 1 {
		errs = append(errs, errors.New("topP must be between 0 and 1"))
	}
	if c.FrequencyPenalty < MinPenalty || c.FrequencyPenalty > MaxPenalty {
		errs = append(errs, errors.New("frequencyPenalty must be between -2 and 2"))
	}
	if c.PresencePenalty < MinPenalty || c.PresencePenalty > MaxPenalty {
		errs = append(errs, errors.New("presencePenalty must be between -2 and 2"))
	}
	return errors.Join(errs...)
}

// LLM is a configured reference to an external language-model provider.
type LLM struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Endpoint  string    `json:"endpoint,omitempty"`
	APIKey    string    `json:"-"` // Write-only
	HasAPIKey bool      `json:"hasApiKey"`
	Config    LLMConfig `json:"config"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// JSON string field for DB storage
	ConfigJSON string `json:"-"`
}

// PrepareForSave marshals the config into its JSON column.
func (l *LLM) PrepareForSave() {
	configBytes, _ := json.Marshal(l.Config)
	l.ConfigJSON = string(configBytes)
}

// PrepareForAPI restores the config from its JSON column and derives response-only fields.
func (l *LLM) PrepareForAPI() {
	if l.ConfigJSON != "" {
		json.Unmarshal([]byte(l.ConfigJSON), &l.Config)
	}
	l.HasAPIKey = l.APIKey != ""
}

// LLMPatch enumerates the model fields an admin may change. Nil fields are left untouched.
type LLMPatch struct {
	Name             *string  `json:"name"`
	Provider         *string  `json:"provider"`
	Endpoint         *string  `json:"endpoint"`
	APIKey           *string  `json:"apiKey"`
	Enabled          *bool    `json:"enabled"`
	MaxTokens        *int     `json:"maxTokens"`
	Temperature      *float64 `json:"temperature"`
	TopP             *float64 `json:"topP"`
	FrequencyPenalty *float64 `json:"frequencyPenalty"`
	PresencePenalty  *float64 `json:"presencePenalty"`
}

// Apply merges the non-nil patch fields into l.
func (p LLMPatch) Apply(l *LLM) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Provider != nil {
		l.Provider = *p.Provider
	}
	if p.Endpoint != nil {
		l.Endpoint = *p.Endpoint
	}
	if p.APIKey != nil {
		l.APIKey = *p.APIKey
	}
	if p.Enabled != nil {
		l.Enabled = *p.Enabled
	}
	if p.MaxTokens != nil {
		l.Config.MaxTokens = *p.MaxTokens
	}
	if p.Temperature != nil {
		l.Config.Temperature = *p.Temperature
	}
	if p.TopP != nil {
		l.Config.TopP = *p.TopP
	}
	if p.FrequencyPenalty != nil {
		l.Config.FrequencyPenalty = *p.FrequencyPenalty
	}
	if p.PresencePenalty != nil {
		l.Config.PresencePenalty = *p.PresencePenalty
	}
}
