package styles

import (
	"os"

	"github.com/muesli/termenv"
)

// Both styles are printed to stderr, so its color profile decides.
var (
	stderr = termenv.NewOutput(os.Stderr)

	ERROR = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("9")).
			String()
	}
	WARNING = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("#FFCC00")).
			String()
	}
)
