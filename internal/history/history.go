package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// HistoryManager keeps the command log shared with the debugger's own
// history file. The file is newline delimited and is only ever appended to.
// An empty path keeps the log in memory.
type HistoryManager struct {
	mu      sync.Mutex
	path    string
	dedupe  bool
	entries []string
}

func NewHistoryManager(filePath string, removeDuplicates bool) (*HistoryManager, error) {
	historyManager := &HistoryManager{
		path:   filePath,
		dedupe: removeDuplicates,
	}

	if filePath == "" {
		return historyManager, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("error creating history directory: %w", err)
	}

	entries, err := readLines(filePath)
	if err != nil {
		return nil, err
	}
	historyManager.entries = entries

	return historyManager, nil
}

func readLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening history file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading history file: %w", err)
	}

	return lines, nil
}

// Path returns the backing file, or "" for an in-memory log.
func (historyManager *HistoryManager) Path() string {
	return historyManager.path
}

// Append records one accepted input line. Blank lines are skipped.
func (historyManager *HistoryManager) Append(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	historyManager.mu.Lock()
	defer historyManager.mu.Unlock()

	historyManager.entries = append(historyManager.entries, line)

	if historyManager.path == "" {
		return nil
	}

	file, err := os.OpenFile(historyManager.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("error opening history file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("error appending to history file: %w", err)
	}

	return nil
}

// Last returns the most recently appended entry.
func (historyManager *HistoryManager) Last() (string, bool) {
	historyManager.mu.Lock()
	defer historyManager.mu.Unlock()

	if len(historyManager.entries) == 0 {
		return "", false
	}
	return historyManager.entries[len(historyManager.entries)-1], true
}

// GetRecentEntries returns up to limit entries, most recent first. A
// non-positive limit returns everything. Duplicates are dropped when the
// manager was created with removeDuplicates.
func (historyManager *HistoryManager) GetRecentEntries(limit int) []string {
	historyManager.mu.Lock()
	entries := slices.Clone(historyManager.entries)
	historyManager.mu.Unlock()

	slices.Reverse(entries)
	entries = lo.Filter(entries, func(entry string, _ int) bool {
		return strings.TrimSpace(entry) != ""
	})
	if historyManager.dedupe {
		entries = lo.Uniq(entries)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Reload re-reads the backing file, picking up lines written by other
// processes since the manager was created.
func (historyManager *HistoryManager) Reload() error {
	if historyManager.path == "" {
		return nil
	}

	entries, err := readLines(historyManager.path)
	if err != nil {
		return err
	}

	historyManager.mu.Lock()
	historyManager.entries = entries
	historyManager.mu.Unlock()
	return nil
}
