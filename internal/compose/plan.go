package compose

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// PlannedCommit is one proposed commit: a short label, message metadata
// for rendering, and the ordered hunk identifiers it claims. It carries
// no self-enforced invariants; Validate checks it against the inventory.
type PlannedCommit struct {
	ID      string   `json:"id"`
	Type    string   `json:"type,omitempty"`
	Scope   string   `json:"scope,omitempty"`
	Ticket  string   `json:"ticket,omitempty"`
	Title   string   `json:"title"`
	Bullets []string `json:"bullets,omitempty"`
	Hunks   []string `json:"hunks"`
}

// Plan is an ordered sequence of planned commits intended to cover the
// inventory. Always produced by an untrusted collaborator (language
// model output or a user-supplied file) and re-validated regardless of
// origin.
type Plan struct {
	Version  string          `json:"version"`
	Warnings []string        `json:"warnings"`
	Commits  []PlannedCommit `json:"commits"`
}

// conventionalPrefixRe matches a redundant "type(scope): " prefix that
// models sometimes repeat inside the title even though type and scope
// are separate fields.
var conventionalPrefixRe = regexp.MustCompile(`^([a-zA-Z]+)(?:\([^)]*\))?:\s*`)

// LoadPlan decodes a candidate plan from JSON. Titles carrying a
// duplicated conventional-commit prefix are normalized so rendering does
// not emit it twice.
func LoadPlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if p.Version == "" {
		p.Version = "1"
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	for i := range p.Commits {
		c := &p.Commits[i]
		if c.Type == "" || c.Title == "" {
			continue
		}
		if m := conventionalPrefixRe.FindStringSubmatch(c.Title); m != nil &&
			strings.EqualFold(m[1], c.Type) {
			c.Title = c.Title[len(m[0]):]
		}
	}
	return &p, nil
}

// Encode serializes the plan. Encoding is stable: decode followed by
// re-encode of the same plan produces identical bytes, which --from-plan
// replay and the plan cache rely on.
func (p *Plan) Encode() ([]byte, error) {
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Commit returns the planned commit with the given ID.
func (p *Plan) Commit(id string) (*PlannedCommit, bool) {
	for i := range p.Commits {
		if strings.EqualFold(p.Commits[i].ID, id) {
			return &p.Commits[i], true
		}
	}
	return nil, false
}

// HunkCount is the total number of hunk assignments across all commits.
func (p *Plan) HunkCount() int {
	n := 0
	for _, c := range p.Commits {
		n += len(c.Hunks)
	}
	return n
}
