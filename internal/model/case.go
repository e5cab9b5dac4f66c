package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrValidation = errors.New("validation_failed")

// Case is one patient encounter as submitted from the intake form.
type Case struct {
	Species  string   `json:"species"`
	Age      string   `json:"age"`
	Sex      string   `json:"sex"`
	Breed    string   `json:"breed,omitempty"`
	Weight   float64  `json:"weight"`
	Problems []string `json:"problems"`
	Excluded []string `json:"excluded"`
}

// ModelReply is the raw text returned by one upstream model.
type ModelReply struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Model     string `json:"model"`
	ModelName string `json:"modelName"`
	Error     string `json:"error,omitempty"`
}

func (r ModelReply) Failed() bool {
	return r.Error != ""
}

// CaseRecord is a submitted case together with the replies it produced.
type CaseRecord struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Selector  string       `json:"model"`
	Case      Case         `json:"case"`
	Replies   []ModelReply `json:"replies"`
}

type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validate checks the fields the intake form marks as required.
func (c Case) Validate() error {
	details := []string{}
	if strings.TrimSpace(c.Species) == "" {
		details = append(details, "species is required")
	}
	if strings.TrimSpace(c.Age) == "" {
		details = append(details, "age is required")
	}
	if strings.TrimSpace(c.Sex) == "" {
		details = append(details, "sex is required")
	}
	if c.Weight <= 0 {
		details = append(details, "weight must be greater than 0 kg")
	}
	if len(nonBlank(c.Problems)) == 0 {
		details = append(details, "at least one problem is required")
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

// Normalized returns a copy with trimmed fields and blank list entries removed.
func (c Case) Normalized() Case {
	return Case{
		Species:  strings.TrimSpace(c.Species),
		Age:      strings.TrimSpace(c.Age),
		Sex:      strings.TrimSpace(c.Sex),
		Breed:    strings.TrimSpace(c.Breed),
		Weight:   c.Weight,
		Problems: nonBlank(c.Problems),
		Excluded: nonBlank(c.Excluded),
	}
}

func (c Case) ProblemList() string {
	return strings.Join(nonBlank(c.Problems), ", ")
}

func (c Case) ExcludedList() string {
	return strings.Join(nonBlank(c.Excluded), ", ")
}

// IsCat reports whether the species names a feline patient.
func (c Case) IsCat() bool {
	s := strings.ToLower(c.Species)
	return strings.Contains(s, "cat") || strings.Contains(s, "feline")
}

func nonBlank(values []string) []string {
	out := []string{}
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
