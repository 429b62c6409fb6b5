// Package history keeps the append-only per-branch commit log.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"slate/internal/vcserr"
)

// Record is one commit's metadata. Parent is the id of the branch head at
// commit time, empty for the first commit on a lineage. Files is the ordered
// list of paths the snapshot holds.
type Record struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Parent    string    `json:"parent,omitempty"`
	Files     []string  `json:"files"`
}

// Log reads and writes per-branch log files under logsDir.
type Log struct {
	logsDir string
}

func NewLog(logsDir string) *Log {
	return &Log{logsDir: logsDir}
}

func (l *Log) logFile(branch string) string {
	return filepath.Join(l.logsDir, branch+".json")
}

// InitBranch writes an empty log for a new branch.
func (l *Log) InitBranch(branch string) error {
	return l.write(branch, []Record{})
}

// Entries returns a branch's records, oldest first.
func (l *Log) Entries(branch string) ([]Record, error) {
	data, err := os.ReadFile(l.logFile(branch))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vcserr.NotFound("no history for branch %q", branch)
		}
		return nil, fmt.Errorf("reading log for branch %q: %w", branch, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing log for branch %q: %w", branch, err)
	}
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("malformed log record in branch %q: missing id", branch)
		}
	}
	return records, nil
}

// Latest returns the most recent record, or false for an empty log.
func (l *Log) Latest(branch string) (Record, bool, error) {
	records, err := l.Entries(branch)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[len(records)-1], true, nil
}

// Append adds a record to a branch's log. The caller sets Parent to the
// branch head that was current before this commit.
func (l *Log) Append(branch string, record Record) error {
	records, err := l.Entries(branch)
	if err != nil {
		return err
	}
	return l.write(branch, append(records, record))
}

// CopyForBranch initializes a new branch's log as a value copy of the source
// branch's log. Subsequent commits to either branch do not appear in the
// other's log.
func (l *Log) CopyForBranch(source, branch string) error {
	records, err := l.Entries(source)
	if err != nil {
		return err
	}
	return l.write(branch, records)
}

func (l *Log) write(branch string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling log for branch %q: %w", branch, err)
	}
	if err := os.WriteFile(l.logFile(branch), data, 0644); err != nil {
		return fmt.Errorf("writing log for branch %q: %w", branch, err)
	}
	return nil
}
