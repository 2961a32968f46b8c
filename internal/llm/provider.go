package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ErrMissingAPIKey indicates the selected provider has no credential in
// the environment or config file.
var ErrMissingAPIKey = errors.New("missing API key")

// Result is one completion from a provider.
type Result struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Provider generates text completions. Implementations block until the
// provider replies; callers bound the wait with the context.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (Result, error)
}

// Options configures providers independently of the global config shape.
type Options struct {
	Model     string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

type factory func(Options) Provider

// registry maps provider names to constructors, the same shape the
// tool-adapter registry uses for tool names.
var registry = map[string]factory{
	"anthropic": newAnthropic,
	"openai":    newOpenAI,
}

// apiKeyEnv names the conventional credential variable per provider.
var apiKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// New builds the named provider. The API key is taken from opts, falling
// back to the provider's conventional environment variable.
func New(name string, opts Options) (Provider, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", name, Names())
	}
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(apiKeyEnv[name])
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s or run 'commitstack config set'", ErrMissingAPIKey, apiKeyEnv[name])
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	return build(opts), nil
}

// Names lists registered provider names.
func Names() string {
	return "anthropic, openai"
}

// Known reports whether a provider name is registered.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
