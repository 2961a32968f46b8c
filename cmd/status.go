package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commitstack/cli/internal/cache"
	"github.com/commitstack/cli/internal/config"
	"github.com/commitstack/cli/internal/git"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and repository state",
	Long:  `Display the effective configuration, the repository's staging state, and any cached compose plan.`,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Printf("commitstack %s\n\n", Version)

	cfg := config.Load()
	fmt.Printf("Provider:    %s\n", cfg.Provider)
	if cfg.Model != "" {
		fmt.Printf("Model:       %s\n", cfg.Model)
	} else {
		fmt.Printf("Model:       (provider default)\n")
	}
	fmt.Printf("Style:       %s\n", cfg.Style)
	fmt.Printf("Max commits: %d\n", cfg.MaxCommits)
	fmt.Printf("API key:     %s\n", config.MaskAPIKey(cfg.APIKey(cfg.Provider)))
	fmt.Printf("Config file: %s\n", config.ConfigPath())
	fmt.Println()

	repo, err := git.Discover(".")
	if err != nil {
		fmt.Println("Repository:  not inside a git repository")
		return nil
	}
	fmt.Printf("Repository:  %s\n", repo.Root())

	if branch, err := repo.Branch(ctx); err == nil {
		fmt.Printf("Branch:      %s\n", branch)
	}
	if counts, err := repo.Status(ctx); err == nil {
		fmt.Printf("Staged:      %d file(s)\n", counts.Staged)
		fmt.Printf("Unstaged:    %d file(s)\n", counts.Unstaged)
		fmt.Printf("Untracked:   %d file(s)\n", counts.Untracked)
	}

	store := cache.NewStore(repo.Root())
	meta, err := store.LoadMetadata()
	if err != nil || meta == nil {
		fmt.Println("Cached plan: none")
		return nil
	}
	fmt.Println()
	fmt.Printf("Cached plan: %d commit(s) over %d hunk(s)\n", meta.Commits, meta.TotalHunks)
	fmt.Printf("  generated: %s by %s\n", meta.GeneratedAt, meta.Model)
	fmt.Printf("  style:     %s (max %d commits)\n", meta.Style, meta.MaxCommits)
	fmt.Printf("  run id:    %s\n", meta.RunID)
	return nil
}
