package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestProvider(t *testing.T, host *fakeHost) *Provider {
	t.Helper()
	source := NewSource(host, SourceConfig{Limit: Unlimited, Logger: zaptest.NewLogger(t)})
	p := NewProvider(source, zaptest.NewLogger(t))
	require.NotNil(t, p)
	return p
}

func TestProviderGetCompletions(t *testing.T) {
	host := &fakeHost{commands: []string{"print", "printf", "info registers", "info record", "info registers"}}
	p := newTestProvider(t, host)

	t.Run("first word", func(t *testing.T) {
		assert.Equal(t, []string{"print", "printf"}, p.GetCompletions("pri", 3))
	})

	t.Run("argument word is replaced from its start", func(t *testing.T) {
		assert.Equal(t, []string{"registers", "record"}, p.GetCompletions("  info re", 9))
	})

	t.Run("cursor in the middle only considers text before it", func(t *testing.T) {
		assert.Equal(t, []string{"print", "printf"}, p.GetCompletions("pri xyz", 3))
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, p.GetCompletions("zzz", 3))
	})
}

func TestProviderGetCompletionsHostError(t *testing.T) {
	p := newTestProvider(t, &fakeHost{failListing: true})
	assert.Empty(t, p.GetCompletions("p", 1))
}

func TestProviderGetHelpInfo(t *testing.T) {
	host := &fakeHost{help: map[string]string{"info registers": "List of integer registers.\n"}}
	p := newTestProvider(t, host)

	assert.Equal(t, "List of integer registers.", p.GetHelpInfo("info registers ", 15))
	assert.Equal(t, "", p.GetHelpInfo("info nothing", 12))
	assert.Equal(t, "", p.GetHelpInfo("   ", 3))
	assert.Equal(t, 2, host.helpCalls)
}
