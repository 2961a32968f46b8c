package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	porcelain := "M  staged.go\n" +
		"MM both.go\n" +
		" M unstaged.go\n" +
		"A  added.go\n" +
		"?? new.txt\n" +
		"?? other.txt\n"

	counts := parseStatus(porcelain)
	assert.Equal(t, 3, counts.Staged)   // staged.go, both.go, added.go
	assert.Equal(t, 2, counts.Unstaged) // both.go, unstaged.go
	assert.Equal(t, 2, counts.Untracked)
	assert.True(t, counts.Dirty())
}

func TestParseStatusEmpty(t *testing.T) {
	counts := parseStatus("")
	assert.Equal(t, StatusCounts{}, counts)
	assert.False(t, counts.Dirty())
}
