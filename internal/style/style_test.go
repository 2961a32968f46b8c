package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitstack/cli/internal/compose"
)

func TestParse(t *testing.T) {
	for name, want := range map[string]Profile{
		"":             Default,
		"default":      Default,
		"conventional": Conventional,
		"Conventional": Conventional,
		"kernel":       Kernel,
	} {
		got, err := Parse(name)
		require.NoError(t, err, "Parse(%q)", name)
		assert.Equal(t, want, got)
	}

	_, err := Parse("haiku")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid style "haiku"`)
}

func TestRenderDefault(t *testing.T) {
	c := &compose.PlannedCommit{
		ID:    "c1",
		Title: "add rename detection",
	}
	assert.Equal(t, "add rename detection\n", Render(c, Default))
}

func TestRenderConventional(t *testing.T) {
	c := &compose.PlannedCommit{
		Type:    "feat",
		Scope:   "parser",
		Title:   "add rename detection",
		Bullets: []string{"track rename from/to paths", "warn on rename-only files"},
		Ticket:  "PROJ-42",
	}

	want := "feat(parser): add rename detection\n" +
		"\n- track rename from/to paths" +
		"\n- warn on rename-only files" +
		"\n\nRefs: PROJ-42\n"
	assert.Equal(t, want, Render(c, Conventional))

	// Missing type falls back to chore; missing scope drops the parens.
	bare := &compose.PlannedCommit{Title: "tidy imports"}
	assert.Equal(t, "chore: tidy imports\n", Render(bare, Conventional))
}

func TestRenderKernel(t *testing.T) {
	c := &compose.PlannedCommit{Scope: "net", Title: "fix checksum offload"}
	assert.Equal(t, "net: fix checksum offload\n", Render(c, Kernel))

	// Scope missing: the type stands in as the subsystem.
	c = &compose.PlannedCommit{Type: "fix", Title: "fix checksum offload"}
	assert.Equal(t, "fix: fix checksum offload\n", Render(c, Kernel))

	// Neither: plain subject.
	c = &compose.PlannedCommit{Title: "fix checksum offload"}
	assert.Equal(t, "fix checksum offload\n", Render(c, Kernel))
}
