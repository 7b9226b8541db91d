package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Document", KeyDocument, "home", Document("home")},
		{"Step", KeyStep, "body-element", Step("body-element")},
		{"Target", KeyTarget, "2.2.11", Target("2.2.11")},
		{"SavedVersion", KeySavedVersion, "2.2.9", SavedVersion("2.2.9")},
		{"RunningVersion", KeyRunningVersion, "2.6.2", RunningVersion("2.6.2")},
		{"Classification", KeyClassification, "needs_migration", Classification("needs_migration")},
		{"ElementID", KeyElementID, "el-1", ElementID("el-1")},
		{"PageID", KeyPageID, "page-home", PageID("page-home")},
		{"URL", KeyURL, "http://example", URL("http://example")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil); got.Value.String() != "" {
		t.Fatalf("expected empty error value, got %q", got.Value.String())
	}
	if got := Error(errors.New("boom")); got.Key != KeyError || got.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", got)
	}
	if got := Count(3); got.Value.Int64() != 3 {
		t.Fatalf("unexpected count attr %v", got)
	}
}
