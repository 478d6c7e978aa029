package completion

import (
	"context"
	"strings"
	"unicode"
)

// HelpLookup resolves documentation for a command name.
type HelpLookup interface {
	HelpText(ctx context.Context, name string) (string, bool)
}

// HelpPolicy decides whether a batch of completions needs help text for
// every candidate, or whether they all share their parent command's help.
// Reporting true when help is shared only costs extra lookups; reporting
// false when it differs hides documentation.
type HelpPolicy interface {
	NeedsIndividualHelp(ctx context.Context, lookup HelpLookup, sample string) bool
}

// PrefixPolicy compares the help of the sample with the help of the sample
// minus its last word. Single-word samples always need their own help.
type PrefixPolicy struct{}

func (PrefixPolicy) NeedsIndividualHelp(ctx context.Context, lookup HelpLookup, sample string) bool {
	sample = strings.TrimSpace(sample)
	cut := strings.LastIndexFunc(sample, unicode.IsSpace)
	if cut < 0 {
		return true
	}

	parent := strings.TrimRightFunc(sample[:cut], unicode.IsSpace)
	parentText, parentOK := lookup.HelpText(ctx, parent)
	sampleText, sampleOK := lookup.HelpText(ctx, sample)

	return parentOK != sampleOK || parentText != sampleText
}

// AlwaysPolicy requests help for every candidate.
type AlwaysPolicy struct{}

func (AlwaysPolicy) NeedsIndividualHelp(context.Context, HelpLookup, string) bool {
	return true
}
