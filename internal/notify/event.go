// Package notify publishes upgrade events so other services can react to
// migrated documents. Publishing never affects the outcome of an upgrade.
package notify

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/history"
)

// UpgradeEvent is published after every upgrade attempt.
type UpgradeEvent struct {
	RunID          string    `json:"run_id,omitempty"`
	Document       string    `json:"document"`
	Saved          string    `json:"saved,omitempty"`
	Running        string    `json:"running"`
	Classification string    `json:"classification,omitempty"`
	Outcome        string    `json:"outcome"`
	Steps          []string  `json:"steps,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// FromRun converts a recorded run into an event.
func FromRun(run history.Run) *UpgradeEvent {
	return &UpgradeEvent{
		RunID:          run.RunID,
		Document:       run.Document,
		Saved:          run.Saved,
		Running:        run.Running,
		Classification: run.Classification,
		Outcome:        run.Outcome,
		Steps:          run.Steps,
		Error:          run.Error,
		Timestamp:      run.Time,
	}
}

// KVKey maps a document name onto the key alphabet JetStream KV accepts.
func KVKey(document string) string {
	var b strings.Builder
	for _, r := range document {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '=', r == '.', r == '/':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	key := strings.Trim(b.String(), "./")
	if key == "" {
		return "_"
	}
	return key
}
