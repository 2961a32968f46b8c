package compose

import (
	"fmt"
	"strings"
)

// SystemPrompt frames the plan collaborator's task. The reply is treated
// as untrusted input and always re-validated.
const SystemPrompt = `You are an expert software engineer creating a clean commit stack from a set of changes.

Split the given changes (hunks) into logical, atomic commits:
- Each commit should be cohesive and focused on one logical change
- Separate features, refactors, tests, docs, and config changes
- Order commits so that earlier commits never depend on later ones
- Do not split hunks from the same new file across commits
- Reference ONLY the hunk IDs provided in the inventory

Output ONLY valid JSON matching the required schema. No markdown fences or commentary.`

// PromptContext carries the repository context shown to the collaborator.
type PromptContext struct {
	Branch        string
	RecentSubject []string
	Style         string
	MaxCommits    int
}

// BuildPrompt renders the user prompt: context, stats, the inventory
// description, the output schema and the assignment rules.
func BuildPrompt(inv *Inventory, pc PromptContext, opts RenderOptions) string {
	textFiles := 0
	for _, fd := range inv.Files {
		if !fd.Binary {
			textFiles++
		}
	}

	recent := "None"
	if len(pc.RecentSubject) > 0 {
		n := len(pc.RecentSubject)
		if n > 5 {
			n = 5
		}
		recent = strings.Join(pc.RecentSubject[:n], ", ")
	}

	var b strings.Builder
	b.WriteString("Split the following changes into a clean commit stack.\n\n")
	fmt.Fprintf(&b, "[CONTEXT]\nBranch: %s\nRecent commits: %s\nStyle: %s\nMax commits: %d\n\n",
		pc.Branch, recent, pc.Style, pc.MaxCommits)
	fmt.Fprintf(&b, "[STATS]\nFiles with changes: %d\nTotal hunks: %d\n\n", textFiles, inv.Len())
	b.WriteString(inv.Render(opts))
	b.WriteString(`

[OUTPUT SCHEMA]
Return a JSON object with this exact structure:
{
  "version": "1",
  "warnings": [],
  "commits": [
    {
      "id": "C1",
      "type": "<feat|fix|docs|refactor|test|chore|build|ci|perf|style>",
      "scope": "<optional scope>",
      "ticket": "",
      "title": "<short description in imperative mood, max 72 chars, WITHOUT type/scope prefix>",
      "bullets": ["<change 1>", "<change 2>"],
      "hunks": ["<hunk_id_1>", "<hunk_id_2>"]
    }
  ]
}

The "title" field must contain ONLY the description, never the conventional
commit prefix; type and scope are separate fields.

[RULES]
`)
	fmt.Fprintf(&b, `1. Reference ONLY hunk IDs from the inventory above
2. Each hunk must appear in exactly ONE commit
3. Maximum %d commits
4. Keep new file hunks together in one commit
5. Order: infrastructure before features, tests and docs after
6. Use an appropriate commit type for each group

Output ONLY the JSON object:`, pc.MaxCommits)

	return b.String()
}
