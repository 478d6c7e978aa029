package completion

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// Provider implements the in-editor CompletionProvider used when no fuzzy
// picker is available. Each suggestion replaces the word under the cursor.
type Provider struct {
	source  *Source
	timeout time.Duration
	logger  *zap.Logger
}

// NewProvider creates a Provider backed by source.
func NewProvider(source *Source, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		source:  source,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// GetCompletions returns suggestions for the word ending at pos.
func (p *Provider) GetCompletions(line string, pos int) []string {
	target := strings.TrimLeftFunc(textBefore(line, pos), unicode.IsSpace)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	completions, err := p.source.ListCompletions(ctx, target)
	if err != nil {
		p.logger.Debug("completion failed", zap.Error(err))
		return []string{}
	}

	wordStart := strings.LastIndexFunc(target, unicode.IsSpace) + 1

	suggestions := make([]string, 0, len(completions))
	for _, completion := range Normalize(completions) {
		if !strings.HasPrefix(completion, target) {
			continue
		}
		suggestions = append(suggestions, completion[wordStart:])
	}
	return suggestions
}

// GetHelpInfo returns the documentation of the command typed so far.
func (p *Provider) GetHelpInfo(line string, pos int) string {
	command := strings.TrimSpace(textBefore(line, pos))
	if command == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	text, ok := p.source.HelpText(ctx, command)
	if !ok {
		return ""
	}
	return text
}

func textBefore(line string, pos int) string {
	runes := []rune(line)
	if pos < 0 {
		pos = 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	return string(runes[:pos])
}
