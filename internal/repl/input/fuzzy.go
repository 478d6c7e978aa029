package input

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"unicode"

	"github.com/atinylittleshell/gep/internal/picker"
	"github.com/atinylittleshell/gep/internal/repl/completion"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

// Finder runs the external fuzzy picker.
type Finder interface {
	Run(ctx context.Context, req picker.Request) (picker.Selection, error)
}

// CompletionSource supplies host completions and help for fuzzy tab
// completion.
type CompletionSource interface {
	Batch(ctx context.Context, prefix string) (completion.Batch, error)
	HelpText(ctx context.Context, candidate string) (string, bool)
}

// HistorySource lists past commands, most recent first. A non-positive
// limit returns everything.
type HistorySource interface {
	GetRecentEntries(limit int) []string
}

// Edit is a change to apply to the line after a picker run.
type Edit struct {
	// Replace swaps the whole line for Text.
	Replace bool

	// Delete is the number of runes removed before the cursor ahead of
	// inserting Text.
	Delete int
	Text   string
}

// Apply performs the edit on b.
func (e Edit) Apply(b *Buffer) {
	if e.Replace {
		b.SetText(e.Text)
		return
	}
	b.ReplaceBeforeCursor(e.Delete, e.Text)
}

// historyReloader is a history source backed by a file that other debugger
// sessions may append to.
type historyReloader interface {
	Reload() error
}

func reloadHistory(history HistorySource, logger *zap.Logger) {
	reloader, ok := history.(historyReloader)
	if !ok {
		return
	}
	if err := reloader.Reload(); err != nil {
		logger.Warn("failed to reload history, searching cached entries", zap.Error(err))
	}
}

// RunHistorySearch lets the user pick a past command, using query as the
// initial filter. The history is re-read first. It reports false when the
// picker was cancelled.
func RunHistorySearch(ctx context.Context, finder Finder, history HistorySource, query string, logger *zap.Logger) (Edit, bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reloadHistory(history, logger)
	entries := completion.Normalize(history.GetRecentEntries(0))

	selection, err := finder.Run(ctx, picker.Request{
		Query:      query,
		Candidates: entries,
		Delimiter:  picker.Newline,
	})
	if err != nil {
		return Edit{}, false, err
	}

	text := strings.TrimSpace(selection.Text)
	if selection.Cancelled || text == "" {
		return Edit{}, false, nil
	}
	return Edit{Replace: true, Text: text}, true, nil
}

// RunFuzzyComplete completes the text before the cursor through the picker,
// with help previews when the candidates are documented separately.
func RunFuzzyComplete(ctx context.Context, finder Finder, source CompletionSource, textBeforeCursor string, logger *zap.Logger) (Edit, bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	target := strings.TrimLeftFunc(textBeforeCursor, unicode.IsSpace)
	batch, err := source.Batch(ctx, target)
	if err != nil {
		return Edit{}, false, err
	}

	plan, ok := completion.NewPlan(textBeforeCursor, completion.Normalize(batch.Items))
	if !ok {
		return Edit{}, false, nil
	}

	preview := openPreview(ctx, source, plan, batch.IndividualHelp, logger)
	if preview != nil {
		defer func() {
			if err := preview.Close(); err != nil {
				logger.Debug("failed to close preview", zap.Error(err))
			}
		}()
	}

	selection, err := finder.Run(ctx, picker.Request{
		Query:      plan.Query,
		Candidates: plan.Entries,
		Preview:    preview,
		Delimiter:  picker.NUL,
	})
	if err != nil {
		return Edit{}, false, err
	}
	if selection.Cancelled || strings.TrimSpace(selection.Text) == "" {
		return Edit{}, false, nil
	}

	deleteRunes, insert := plan.Splice(selection.Text)
	return Edit{Delete: deleteRunes, Text: insert}, true, nil
}

// openPreview returns a live help channel when each candidate has its own
// help, a static preview when they share one, or nil.
func openPreview(ctx context.Context, source CompletionSource, plan completion.Plan, individual bool, logger *zap.Logger) picker.Preview {
	if individual {
		index := picker.NewHelpIndex(plan.Candidates, source.HelpText)
		channel, err := picker.OpenChannel(ctx, index, logger)
		if err != nil {
			logger.Warn("preview unavailable", zap.Error(err))
			return nil
		}
		return channel
	}

	text, ok := source.HelpText(ctx, plan.Candidates[0])
	if !ok {
		return nil
	}
	static, err := picker.NewStaticPreview(text)
	if err != nil {
		logger.Warn("preview unavailable", zap.Error(err))
		return nil
	}
	return static
}

// pickerJob is one blocking picker session.
type pickerJob func(ctx context.Context) (Edit, bool, error)

// pickerTask runs a picker session while the editor has released the
// terminal. The prompt line is drawn first so it stays visible above the
// picker, and erased afterwards so the editor can redraw in place.
type pickerTask struct {
	ctx        context.Context
	line       string
	promptRows int
	job        pickerJob
	stdout     io.Writer

	edit Edit
	ok   bool
}

func newPickerTask(ctx context.Context, prompt, line string, job pickerJob) *pickerTask {
	return &pickerTask{
		ctx:        ctx,
		line:       line,
		promptRows: strings.Count(prompt, "\n"),
		job:        job,
		stdout:     os.Stdout,
	}
}

func (t *pickerTask) SetStdin(io.Reader) {}

func (t *pickerTask) SetStdout(w io.Writer) {
	if w != nil {
		t.stdout = w
	}
}

func (t *pickerTask) SetStderr(io.Writer) {}

func (t *pickerTask) Run() error {
	out := termenv.NewOutput(t.stdout)

	// The editor leaves the cursor on the last row of the prompt.
	if t.promptRows > 0 {
		out.CursorUp(t.promptRows)
	}
	fmt.Fprint(out, "\r")
	eraseBelow(out)
	fmt.Fprint(out, t.line+"\n")

	// The terminal is in cooked mode until the finder starts, so Ctrl+C
	// arrives as a signal. It abandons the session instead of killing gep.
	jobCtx, stop := signal.NotifyContext(t.ctx, os.Interrupt)
	var err error
	t.edit, t.ok, err = t.job(jobCtx)
	if jobCtx.Err() != nil && t.ctx.Err() == nil {
		t.edit, t.ok, err = Edit{}, false, nil
	}
	stop()

	out.CursorUp(t.promptRows + 1)
	fmt.Fprint(out, "\r")
	eraseBelow(out)
	return err
}

func eraseBelow(out *termenv.Output) {
	fmt.Fprintf(out, termenv.CSI+termenv.EraseDisplaySeq, 0)
}

// pickerResultMsg carries a finished picker session back to the model.
type pickerResultMsg struct {
	edit Edit
	ok   bool
	err  error
}
