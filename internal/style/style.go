// Package style renders planned commits into final commit messages.
package style

import (
	"fmt"
	"strings"

	"github.com/commitstack/cli/internal/compose"
)

// Profile selects a commit message format.
type Profile string

const (
	// Default: plain subject plus bullet body.
	Default Profile = "default"
	// Conventional: type(scope): subject, per conventionalcommits.org.
	Conventional Profile = "conventional"
	// Kernel: subsystem: subject, in the Linux kernel's style.
	Kernel Profile = "kernel"
)

// Parse validates a profile name.
func Parse(name string) (Profile, error) {
	switch Profile(strings.ToLower(name)) {
	case Default, "":
		return Default, nil
	case Conventional:
		return Conventional, nil
	case Kernel:
		return Kernel, nil
	}
	return "", fmt.Errorf("invalid style %q (valid: default, conventional, kernel)", name)
}

// Render turns a planned commit into its commit message.
func Render(c *compose.PlannedCommit, profile Profile) string {
	var b strings.Builder

	switch profile {
	case Conventional:
		prefix := c.Type
		if prefix == "" {
			prefix = "chore"
		}
		if c.Scope != "" {
			prefix += "(" + c.Scope + ")"
		}
		fmt.Fprintf(&b, "%s: %s", prefix, c.Title)
	case Kernel:
		subsystem := c.Scope
		if subsystem == "" {
			subsystem = c.Type
		}
		if subsystem != "" {
			fmt.Fprintf(&b, "%s: %s", subsystem, c.Title)
		} else {
			b.WriteString(c.Title)
		}
	default:
		b.WriteString(c.Title)
	}

	if len(c.Bullets) > 0 {
		b.WriteString("\n")
		for _, bullet := range c.Bullets {
			fmt.Fprintf(&b, "\n- %s", bullet)
		}
	}

	if c.Ticket != "" {
		fmt.Fprintf(&b, "\n\nRefs: %s", c.Ticket)
	}

	b.WriteString("\n")
	return b.String()
}
