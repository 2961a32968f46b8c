package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/commitstack/cli/internal/config"
	"github.com/commitstack/cli/internal/llm"
	"github.com/commitstack/cli/internal/style"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage commitstack configuration",
	Long: `Manage commitstack configuration stored in ` + "`$XDG_CONFIG_HOME/commitstack/config.json`" + `
(falling back to ~/.config/commitstack/config.json).

Quick start:
  commitstack config set --provider anthropic
  export ANTHROPIC_API_KEY="your-key"

Priority order: environment variables > config file > defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		cmd.Printf("Provider:    %s\n", cfg.Provider)
		if cfg.Model != "" {
			cmd.Printf("Model:       %s\n", cfg.Model)
		} else {
			cmd.Printf("Model:       (provider default)\n")
		}
		cmd.Printf("Style:       %s\n", cfg.Style)
		cmd.Printf("Max commits: %d\n", cfg.MaxCommits)
		cmd.Printf("Max tokens:  %d\n", cfg.MaxTokens)
		cmd.Printf("Timeout:     %ds\n", cfg.TimeoutSeconds)
		cmd.Printf("API key:     %s\n", config.MaskAPIKey(cfg.APIKey(cfg.Provider)))
		if cfg.Debug {
			cmd.Printf("Debug:       %v\n", cfg.Debug)
		}
		cmd.Println()
		cmd.Printf("Config:      %s\n", config.ConfigPath())
		return nil
	},
}

var (
	setProvider   string
	setModel      string
	setStyle      string
	setMaxCommits int
	setAPIKey     string
	setDebug      bool
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	Long: `Set configuration values in the commitstack config file.

Examples:
  commitstack config set --provider openai --model gpt-4o
  commitstack config set --style conventional
  commitstack config set --max-commits 8
  commitstack config set --api-key sk-xxx   # stored for the current provider`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := config.LoadFile()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if fc == nil {
			fc = &config.Config{}
		}

		changed := false
		if setProvider != "" {
			if !llm.Known(setProvider) {
				return fmt.Errorf("unknown provider %q (available: %s)", setProvider, llm.Names())
			}
			fc.Provider = setProvider
			changed = true
		}
		if cmd.Flags().Changed("model") {
			fc.Model = setModel
			changed = true
		}
		if setStyle != "" {
			if _, err := style.Parse(setStyle); err != nil {
				return err
			}
			fc.Style = setStyle
			changed = true
		}
		if setMaxCommits > 0 {
			fc.MaxCommits = setMaxCommits
			changed = true
		}
		if setAPIKey != "" {
			provider := fc.Provider
			if provider == "" {
				provider = config.DefaultProvider
			}
			if fc.APIKeys == nil {
				fc.APIKeys = make(map[string]string)
			}
			fc.APIKeys[provider] = setAPIKey
			changed = true
		}
		if cmd.Flags().Changed("debug") {
			fc.Debug = setDebug
			changed = true
		}

		if !changed {
			return fmt.Errorf("no values provided. Use --provider, --model, --style, --max-commits, --api-key, or --debug")
		}

		if err := config.SaveFile(fc); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		cmd.Println("Configuration saved")
		if fc.Provider != "" {
			cmd.Printf("  Provider:    %s\n", fc.Provider)
		}
		if fc.Model != "" {
			cmd.Printf("  Model:       %s\n", fc.Model)
		}
		if fc.Style != "" {
			cmd.Printf("  Style:       %s\n", fc.Style)
		}
		if fc.MaxCommits > 0 {
			cmd.Printf("  Max commits: %s\n", strconv.Itoa(fc.MaxCommits))
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(config.ConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	configSetCmd.Flags().StringVar(&setProvider, "provider", "", "LLM provider: anthropic or openai")
	configSetCmd.Flags().StringVar(&setModel, "model", "", "Model name (empty = provider default)")
	configSetCmd.Flags().StringVar(&setStyle, "style", "", "Commit message style: default, conventional, kernel")
	configSetCmd.Flags().IntVar(&setMaxCommits, "max-commits", 0, "Default commit ceiling")
	configSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "API key for the configured provider")
	configSetCmd.Flags().BoolVar(&setDebug, "debug", false, "Enable debug output")
}
