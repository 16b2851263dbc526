// Package generator persists the most recent generated workflow and the
// UI selection state that goes with it.
package generator

import "time"

// ParsedIntent is the interpretation of the user's request
type ParsedIntent struct {
	Action      string   `json:"action"`
	Resource    string   `json:"resource"`
	Description string   `json:"description,omitempty"`
	Entities    []string `json:"entities,omitempty"`
}

// StepParam describes one parameter of a workflow step
type StepParam struct {
	Name        string `json:"name"`
	In          string `json:"in"` // path, query, header, body
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Example is a sample request/response pair for a step
type Example struct {
	Request  string `json:"request"`
	Response string `json:"response"`
}

// Step is one HTTP call of a workflow
type Step struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Method      string      `json:"method"`
	URL         string      `json:"url"` // may contain {placeholders}
	Parameters  []StepParam `json:"parameters,omitempty"`
	Example     Example     `json:"example"`
	Confidence  float64     `json:"confidence"`
}

// Workflow is an ordered sequence of HTTP calls for one API-usage scenario
type Workflow struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Intent      ParsedIntent `json:"parsedIntent"`
	Steps       []Step       `json:"steps"`
}

// Step returns the step with the given id
func (w *Workflow) Step(id string) (Step, bool) {
	if w == nil {
		return Step{}, false
	}
	for _, s := range w.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// InterpretedParam is a parameter value extracted from the user's request
type InterpretedParam struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Type     string `json:"type"`
	Editable bool   `json:"editable"`
}

// State is everything restored across sessions
type State struct {
	Workflow          *Workflow          `json:"workflow"`
	SelectedStepID    string             `json:"selectedStepId"`
	InterpretedParams []InterpretedParam `json:"interpretedParams"`
	Language          string             `json:"selectedLanguage"`
	LastUpdated       time.Time          `json:"-"`
}
