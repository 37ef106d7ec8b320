// Package suggestions maps task text to canned advice and derives the
// priority and estimate labels stored with a new task.
package suggestions

import (
	"strings"
	"unicode/utf8"
)

// FallbackSuggestion is returned when no rule matches.
const FallbackSuggestion = "Start with a clear first step"

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"

	EstimateShort = "30 mins"
	EstimateLong  = "2 hrs"
)

type rule struct {
	keywords    []string
	suggestions []string
}

// Rules are evaluated in order; every matching rule appends its whole block.
var rules = []rule{
	{
		keywords: []string{"complex", "project", "multi-step"},
		suggestions: []string{
			"Break into smaller tasks",
			"Assign deadlines to each part",
			"Identify dependencies",
			"Review after each step",
		},
	},
	{
		keywords: []string{"learn", "study", "read"},
		suggestions: []string{
			"Schedule focused study blocks",
			"Take notes while learning",
			"Test your understanding afterward",
		},
	},
	{
		keywords: []string{"api", "backend", "integration"},
		suggestions: []string{
			"Write and test API endpoints individually",
			"Use Postman or Insomnia for manual testing",
			"Document each route",
		},
	},
}

// Generate returns the advice for a task. The result is never empty.
func Generate(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	var out []string
	for _, r := range rules {
		if containsAny(text, r.keywords) {
			out = append(out, r.suggestions...)
		}
	}
	if len(out) == 0 {
		return []string{FallbackSuggestion}
	}
	return out
}

// Priority is High for "urgent" or "complex" descriptions, Medium for
// descriptions longer than 50 characters, Low otherwise.
func Priority(description string) string {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "urgent") || strings.Contains(lower, "complex"):
		return PriorityHigh
	case utf8.RuneCountInString(description) > 50:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Estimate is "2 hrs" for descriptions longer than 100 characters or
// mentioning "complex", "30 mins" otherwise.
func Estimate(description string) string {
	if utf8.RuneCountInString(description) > 100 || strings.Contains(strings.ToLower(description), "complex") {
		return EstimateLong
	}
	return EstimateShort
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
