package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/commitstack/cli/internal/cache"
	"github.com/commitstack/cli/internal/compose"
	"github.com/commitstack/cli/internal/config"
	"github.com/commitstack/cli/internal/git"
	"github.com/commitstack/cli/internal/llm"
	"github.com/commitstack/cli/internal/style"
	"github.com/commitstack/cli/internal/ui"
)

var (
	composeMaxCommits int
	composeStyle      string
	composeCommit     bool
	composeYes        bool
	composeDryRun     bool
	composeRegenerate bool
	composeJSON       bool
	composeFromPlan   string
	composeShow       string
	composeCopy       bool
	composeStrictMax  bool
	composeDebug      bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Propose a stack of atomic commits from staged changes",
	Long: `Compose reads the staged diff, splits it into hunks, and asks the
configured LLM provider to group the hunks into a stack of small,
atomic commits. The proposed plan is validated against the hunk
inventory before anything touches the repository.

By default compose only prints the proposed stack. Pass --commit to
create the commits; staged-but-unplanned state is restored if the
very first commit fails.

Examples:
  commitstack compose                 # Propose a plan (read-only)
  commitstack compose --commit        # Propose and create the commits
  commitstack compose -c -y           # Create without the confirmation prompt
  commitstack compose --show inventory  # Print the hunk inventory and exit
  commitstack compose --show C2       # Print commit C2's reconstructed patch
  commitstack compose --json          # Print the validated plan as JSON
  commitstack compose --from-plan p.json --commit
  commitstack compose --regenerate    # Ignore the cached plan

Plans are cached under .git/commitstack/ keyed by the staged content,
so re-running compose on the same index is free.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().IntVar(&composeMaxCommits, "max-commits", 0, "Maximum commits in the stack (0 = use config)")
	composeCmd.Flags().StringVar(&composeStyle, "style", "", "Commit message style: default, conventional, kernel")
	composeCmd.Flags().BoolVarP(&composeCommit, "commit", "c", false, "Create the planned commits")
	composeCmd.Flags().BoolVarP(&composeYes, "yes", "y", false, "Skip the confirmation prompt")
	composeCmd.Flags().BoolVar(&composeDryRun, "dry-run", false, "Validate and display the plan without committing")
	composeCmd.Flags().BoolVarP(&composeRegenerate, "regenerate", "r", false, "Ignore any cached plan and ask the provider again")
	composeCmd.Flags().BoolVarP(&composeJSON, "json", "j", false, "Print the validated plan as JSON on stdout")
	composeCmd.Flags().StringVar(&composeFromPlan, "from-plan", "", "Load the plan from a JSON file instead of the provider")
	composeCmd.Flags().StringVar(&composeShow, "show", "", "Print the hunk inventory (\"inventory\") or one planned commit's patch (a commit id), then exit")
	composeCmd.Flags().BoolVar(&composeCopy, "copy", false, "Copy the plan JSON to the clipboard")
	composeCmd.Flags().BoolVar(&composeStrictMax, "strict-max", false, "Treat exceeding --max-commits as an error instead of a warning")
	composeCmd.Flags().BoolVar(&composeDebug, "debug", false, "Print provider and cache diagnostics")
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.Load()
	if composeMaxCommits > 0 {
		cfg.MaxCommits = composeMaxCommits
	}
	if composeStyle != "" {
		cfg.Style = composeStyle
	}
	if composeDebug {
		cfg.Debug = true
	}

	profile, err := style.Parse(cfg.Style)
	if err != nil {
		return err
	}

	repo, err := git.Discover(".")
	if err != nil {
		return err
	}

	if untracked, err := repo.UntrackedFiles(ctx); err == nil && len(untracked) > 0 {
		ui.Warning("%d untracked file(s) are not part of the staged diff and will not be committed", len(untracked))
	}

	diff, err := repo.StagedDiff(ctx)
	if err != nil {
		return err
	}
	if diff == "" {
		return fmt.Errorf("no staged changes; stage something first (git add -p)")
	}

	files, warnings, err := compose.ParseUnifiedDiff(diff)
	if err != nil {
		return fmt.Errorf("parse staged diff: %w", err)
	}
	inv := compose.BuildInventory(files, warnings)
	for _, w := range inv.Warnings {
		ui.Warning("%s", w)
	}
	if inv.Len() == 0 {
		return fmt.Errorf("staged changes contain no text hunks to compose")
	}

	renderOpts := compose.DefaultRenderOptions()
	invText := inv.Render(renderOpts)
	key := cache.Key(invText, string(profile), cfg.MaxCommits)

	if composeShow == "inventory" {
		fmt.Print(invText)
		return nil
	}

	store := cache.NewStore(repo.Root())
	plan, fromCache, err := obtainPlan(ctx, cfg, repo, store, inv, key, profile)
	if err != nil {
		return err
	}
	if cfg.Debug && fromCache {
		ui.Info("using cached plan (key %.12s)", key)
	}

	result := compose.Validate(plan, inv, compose.ValidateOptions{
		MaxCommits:       cfg.MaxCommits,
		StrictMaxCommits: composeStrictMax,
	})
	for _, w := range result.Warnings {
		ui.Warning("%s", w)
	}
	if !result.OK() {
		for _, v := range result.Violations {
			ui.Error("%s", v.String())
		}
		return fmt.Errorf("plan failed validation with %d violation(s)", len(result.Violations))
	}

	if composeShow != "" {
		c, ok := plan.Commit(composeShow)
		if !ok {
			return fmt.Errorf("plan has no commit %q", composeShow)
		}
		patch, err := compose.BuildCommitPatch(c, inv)
		if err != nil {
			return err
		}
		fmt.Print(patch)
		return nil
	}

	planJSON, err := plan.Encode()
	if err != nil {
		return err
	}
	if composeJSON {
		os.Stdout.Write(planJSON)
	}
	if composeCopy {
		if err := clipboard.WriteAll(string(planJSON)); err != nil {
			ui.Warning("copy to clipboard failed: %v", err)
		} else {
			ui.Info("plan copied to clipboard")
		}
	}

	if !composeJSON {
		displayPlan(plan, inv, profile)
	}

	if !composeCommit || composeDryRun {
		if composeDryRun {
			ui.Info("dry run: no commits created")
		} else if !composeJSON {
			ui.Info("run again with --commit to create these commits")
		}
		return nil
	}

	if !composeYes {
		if !ui.Confirm(fmt.Sprintf("Create %d commit(s)?", len(plan.Commits)), true) {
			ui.Info("aborted; nothing was changed")
			return nil
		}
	}

	exec := compose.NewExecutor(repo)
	snapshot, err := exec.TakeSnapshot(ctx)
	if err != nil {
		return err
	}

	outcome := exec.Execute(ctx, plan, inv, snapshot, func(c *compose.PlannedCommit) string {
		return style.Render(c, profile)
	})

	for _, created := range outcome.Created {
		ui.Success("[%s] %.8s %s", created.PlanID, created.Hash, created.Title)
	}

	if !outcome.Success() {
		ui.Error("execution stopped at commit %s: %v", outcome.FailedID, outcome.Err)
		if outcome.IndexRestored {
			ui.Info("the staged changes were restored")
		} else if outcome.RestoreErr != nil {
			ui.Warning("restoring the index also failed: %v", outcome.RestoreErr)
		}
		if hint := outcome.RecoveryHint(snapshot); hint != "" {
			ui.Plain("%s", hint)
		}
		return fmt.Errorf("created %d of %d commit(s)", len(outcome.Created), len(plan.Commits))
	}

	if err := store.Invalidate(); err != nil && cfg.Debug {
		ui.Warning("clearing plan cache failed: %v", err)
	}
	ui.Success("created %d commit(s)", len(outcome.Created))
	return nil
}

// obtainPlan resolves the plan in priority order: an explicit plan file,
// then the cache, then a fresh provider call. Every source is validated
// by the caller the same way.
func obtainPlan(ctx context.Context, cfg *config.Config, repo *git.Runner, store *cache.Store, inv *compose.Inventory, key string, profile style.Profile) (*compose.Plan, bool, error) {
	if composeFromPlan != "" {
		data, err := os.ReadFile(composeFromPlan)
		if err != nil {
			return nil, false, fmt.Errorf("read plan file: %w", err)
		}
		plan, err := compose.LoadPlan(data)
		if err != nil {
			return nil, false, fmt.Errorf("plan file %s: %w", composeFromPlan, err)
		}
		return plan, false, nil
	}

	if !composeRegenerate && store.IsValid(key) {
		data, err := store.LoadPlan()
		if err == nil {
			if plan, err := compose.LoadPlan(data); err == nil {
				return plan, true, nil
			}
		}
		// A cached plan that no longer parses is stale; fall through.
	}

	plan, res, err := generatePlan(ctx, cfg, repo, inv, profile)
	if err != nil {
		return nil, false, err
	}

	planJSON, err := plan.Encode()
	if err != nil {
		return nil, false, err
	}
	meta := cache.Metadata{
		ContextHash:  key,
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Model:        res.Model,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		Commits:      len(plan.Commits),
		TotalHunks:   inv.Len(),
		Style:        string(profile),
		MaxCommits:   cfg.MaxCommits,
	}
	if err := store.Save(planJSON, meta); err != nil && cfg.Debug {
		ui.Warning("caching plan failed: %v", err)
	}
	return plan, false, nil
}

func generatePlan(ctx context.Context, cfg *config.Config, repo *git.Runner, inv *compose.Inventory, profile style.Profile) (*compose.Plan, llm.Result, error) {
	provider, err := llm.New(cfg.Provider, llm.Options{
		Model:     cfg.Model,
		APIKey:    cfg.APIKey(cfg.Provider),
		MaxTokens: cfg.MaxTokens,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, llm.Result{}, err
	}

	branch, err := repo.Branch(ctx)
	if err != nil {
		branch = "unknown"
	}
	pc := compose.PromptContext{
		Branch:        branch,
		RecentSubject: repo.RecentSubjects(ctx, 5),
		Style:         string(profile),
		MaxCommits:    cfg.MaxCommits,
	}
	prompt := compose.BuildPrompt(inv, pc, compose.DefaultRenderOptions())

	ui.Info("asking %s to plan %d hunk(s) across %d file(s)...", provider.Name(), inv.Len(), len(inv.Files))
	if cfg.Debug {
		ui.Info("prompt: %d bytes, provider %s, model %q", len(prompt), provider.Name(), cfg.Model)
	}

	res, err := provider.Complete(ctx, compose.SystemPrompt, prompt)
	if err != nil {
		return nil, llm.Result{}, fmt.Errorf("provider %s: %w", provider.Name(), err)
	}
	if cfg.Debug {
		ui.Info("model %s used %d input / %d output tokens", res.Model, res.InputTokens, res.OutputTokens)
	}

	jsonText, err := llm.ExtractJSON(res.Text)
	if err != nil {
		return nil, llm.Result{}, fmt.Errorf("provider reply: %w", err)
	}
	plan, err := compose.LoadPlan([]byte(jsonText))
	if err != nil {
		return nil, llm.Result{}, fmt.Errorf("provider reply: %w", err)
	}
	for _, w := range plan.Warnings {
		ui.Warning("model: %s", w)
	}
	return plan, res, nil
}

// displayPlan prints the proposed stack with per-commit file/hunk
// summaries and the rendered message preview.
func displayPlan(plan *compose.Plan, inv *compose.Inventory, profile style.Profile) {
	ui.Header("Proposed stack: %d commit(s) covering %d hunk(s)", len(plan.Commits), plan.HunkCount())
	for i := range plan.Commits {
		c := &plan.Commits[i]

		added, removed := 0, 0
		filesSeen := map[string]bool{}
		for _, id := range c.Hunks {
			h, ok := inv.Lookup(id)
			if !ok {
				continue
			}
			added += h.AddedLines()
			removed += h.RemovedLines()
			filesSeen[h.FilePath] = true
		}

		ui.Rule()
		ui.Plain("%d. [%s] %d hunk(s), %d file(s), +%d/-%d", i+1, c.ID, len(c.Hunks), len(filesSeen), added, removed)
		for _, line := range splitLines(style.Render(c, profile)) {
			ui.Plain("   %s", line)
		}
	}
	ui.Rule()
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
