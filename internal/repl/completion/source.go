// Package completion turns debugger completion and help output into the
// candidate sets shown by the fuzzy picker and the in-editor completer.
package completion

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Unlimited disables the completion cap.
const Unlimited = -1

// Host is the part of the debugger the completion source talks to.
type Host interface {
	// Completions returns at most limit completions for prefix. A negative
	// limit means no cap.
	Completions(ctx context.Context, prefix string, limit int) ([]string, error)

	// HelpText returns the documentation of a command. An error means the
	// name is unknown; ok=false means it has no documentation.
	HelpText(ctx context.Context, name string) (text string, ok bool, err error)
}

// SourceConfig holds configuration for creating a Source.
type SourceConfig struct {
	// Limit caps the number of completions. Zero disables completion and
	// Unlimited removes the cap.
	Limit int

	// Policy decides whether a batch needs per-candidate help. Defaults to
	// PrefixPolicy.
	Policy HelpPolicy

	Logger *zap.Logger
}

// Source queries the host for completions and help text. It keeps no state
// between calls.
type Source struct {
	host   Host
	limit  int
	policy HelpPolicy
	logger *zap.Logger
}

// NewSource creates a completion source backed by host.
func NewSource(host Host, cfg SourceConfig) *Source {
	policy := cfg.Policy
	if policy == nil {
		policy = PrefixPolicy{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Source{
		host:   host,
		limit:  cfg.Limit,
		policy: policy,
		logger: logger,
	}
}

// ParseLimit converts a max-completions parameter value into a limit.
func ParseLimit(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "unlimited" {
		return Unlimited, nil
	}

	limit, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid completion limit %q: %w", value, err)
	}
	if limit < 0 {
		return Unlimited, nil
	}
	return limit, nil
}

// Limit returns the configured completion cap.
func (s *Source) Limit() int {
	return s.limit
}

// ListCompletions returns the host's completions for prefix, capped at the
// configured limit. The host is not consulted when the limit is zero.
func (s *Source) ListCompletions(ctx context.Context, prefix string) ([]string, error) {
	if s.limit == 0 {
		return nil, nil
	}

	completions, err := s.host.Completions(ctx, prefix, s.limit)
	if err != nil {
		return nil, fmt.Errorf("error listing completions for %q: %w", prefix, err)
	}

	if s.limit > 0 && len(completions) > s.limit {
		completions = completions[:s.limit]
	}
	return completions, nil
}

// HelpText returns the documentation for candidate. Unknown names and
// undocumented names both report ok=false.
func (s *Source) HelpText(ctx context.Context, candidate string) (string, bool) {
	text, ok, err := s.host.HelpText(ctx, candidate)
	if err != nil {
		s.logger.Debug("no help available", zap.String("candidate", candidate), zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	return strings.TrimSpace(text), true
}

// Batch is one set of completions plus whether each needs its own help.
type Batch struct {
	Items          []string
	IndividualHelp bool
}

// Batch lists completions for prefix and asks the help policy, using the
// first completion as the sample, whether previews need per-candidate help.
func (s *Source) Batch(ctx context.Context, prefix string) (Batch, error) {
	items, err := s.ListCompletions(ctx, prefix)
	if err != nil {
		return Batch{}, err
	}

	batch := Batch{Items: items}
	if len(items) > 0 {
		batch.IndividualHelp = s.policy.NeedsIndividualHelp(ctx, s, items[0])
	}
	return batch, nil
}
