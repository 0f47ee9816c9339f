// Package prompt assembles backlog brainstorming prompts from form selections.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/jaakkos/brainstorm/internal/domain"
)

const (
	defaultCount    = 5
	maxCount        = 20
	defaultPriority = "medium"
	defaultKind     = "feature"
)

// ErrIncompleteSelection is returned when a required selection is missing or out of range.
var ErrIncompleteSelection = errors.New("incomplete selection")

// Selection is what the user picked in the brainstorm form.
type Selection struct {
	Technology   string `json:"technology"`
	TeamFunction string `json:"team_function"`
	Priority     string `json:"priority,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Count        int    `json:"count,omitempty"`
	Context      string `json:"context,omitempty"`
}

var tmpl = template.Must(template.New("backlog").Parse(
	`You are helping an infrastructure administrator plan work for the {{.TeamFunction}} team.
Suggest {{.Count}} {{.Priority}}-priority {{.Kind}} backlog items related to {{.Technology}}.
{{- if .Context}}
Additional context: {{.Context}}
{{- end}}
For each item give a short title, a one-sentence description and acceptance criteria.
Format the answer as a numbered list.
`))

// Normalize trims fields and fills defaults. It does not validate.
func (s Selection) Normalize() Selection {
	s.Technology = strings.TrimSpace(s.Technology)
	s.TeamFunction = strings.TrimSpace(s.TeamFunction)
	s.Priority = strings.ToLower(strings.TrimSpace(s.Priority))
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	s.Context = strings.TrimSpace(s.Context)
	if s.Priority == "" {
		s.Priority = defaultPriority
	}
	if s.Kind == "" {
		s.Kind = defaultKind
	}
	if s.Count == 0 {
		s.Count = defaultCount
	}
	return s
}

// Validate reports the first problem with a normalized selection.
func (s Selection) Validate() error {
	switch {
	case s.Technology == "":
		return fmt.Errorf("%w: technology is required", ErrIncompleteSelection)
	case s.TeamFunction == "":
		return fmt.Errorf("%w: team function is required", ErrIncompleteSelection)
	case !domain.IsPriority(s.Priority):
		return fmt.Errorf("%w: priority must be one of %s", ErrIncompleteSelection, strings.Join(domain.Priorities, ", "))
	case !domain.IsItemKind(s.Kind):
		return fmt.Errorf("%w: kind must be one of %s", ErrIncompleteSelection, strings.Join(domain.ItemKinds, ", "))
	case s.Count < 1 || s.Count > maxCount:
		return fmt.Errorf("%w: count must be between 1 and %d", ErrIncompleteSelection, maxCount)
	}
	return nil
}

// Build renders the prompt for sel.
func Build(sel Selection) (string, error) {
	sel = sel.Normalize()
	if err := sel.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, sel); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
