package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID          = "run_id"
	KeyDocument       = "document"
	KeyStep           = "step"
	KeyTarget         = "target_version"
	KeySavedVersion   = "version_saved"
	KeyRunningVersion = "version_running"
	KeyClassification = "classification"
	KeyElementID      = "element_id"
	KeyPageID         = "page_id"
	KeyURL            = "url"
	KeyCount          = "count"
	KeyDurationMS     = "duration_ms"
	KeyError          = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Document(name string) slog.Attr    { return slog.String(KeyDocument, name) }
func Step(name string) slog.Attr        { return slog.String(KeyStep, name) }
func Target(v string) slog.Attr         { return slog.String(KeyTarget, v) }
func SavedVersion(v string) slog.Attr   { return slog.String(KeySavedVersion, v) }
func RunningVersion(v string) slog.Attr { return slog.String(KeyRunningVersion, v) }
func Classification(c string) slog.Attr { return slog.String(KeyClassification, c) }
func ElementID(id string) slog.Attr     { return slog.String(KeyElementID, id) }
func PageID(id string) slog.Attr        { return slog.String(KeyPageID, id) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
