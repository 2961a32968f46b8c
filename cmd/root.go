package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "commitstack",
	Short: "commitstack - split staged changes into a stack of atomic commits",
	Long: `commitstack reads your staged changes, breaks them into hunks, and
proposes a stack of small, reviewable commits with generated messages.

Get started:
  1. Set your API key: export ANTHROPIC_API_KEY="your-key"
  2. Stage your changes: git add -p
  3. Review the proposed stack: commitstack compose
  4. Create the commits: commitstack compose --commit`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("commitstack %s\n", Version)
	},
}
