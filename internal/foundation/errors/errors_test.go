package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := NewError(CategoryAsset, "bad url").Build()
		derived := base.WithContext("url", "x")

		if _, ok := base.Context().Get("url"); ok {
			t.Error("expected base context to be untouched")
		}
		if v, _ := derived.Context().GetString("url"); v != "x" {
			t.Errorf("expected derived url=x, got %q", v)
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := DecodeError("el-1", "unknown type")
		wrapped := fmt.Errorf("step 2.2.10: %w", inner)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryDecode) {
			t.Error("expected decode category")
		}
		if !IsDecodeError(wrapped) {
			t.Error("expected IsDecodeError to match")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected plain errors to map to internal")
		}
	})
}

func TestMigrationConstructors(t *testing.T) {
	err := UnsupportedLegacyVersion("2.2.5", "2.2.7")
	if !err.IsFatal() {
		t.Error("expected unsupported legacy version to be fatal")
	}
	if !err.NeedsUserAction() {
		t.Error("expected unsupported legacy version to require user action")
	}
	if err.Message() != UnsupportedLegacyMessage {
		t.Errorf("unexpected message %q", err.Message())
	}
	if !IsUnsupportedLegacy(err) {
		t.Error("expected IsUnsupportedLegacy to match")
	}
	if saved, _ := err.Context().GetString("saved_version"); saved != "2.2.5" {
		t.Errorf("expected saved_version 2.2.5, got %q", saved)
	}

	warn := MalformedAssetURL("ftp://nope")
	if warn.IsFatal() || warn.Severity() != SeverityWarning {
		t.Errorf("expected asset url error to be a warning, got %s", warn.Severity())
	}

	pub := MalformedPublicationTarget("{oops", errors.New("unexpected end"))
	if pub.Cause() == nil || HasSeverity(pub, SeverityFatal) {
		t.Error("expected non-fatal publication error with cause")
	}
	if IsDecodeError(pub) {
		t.Error("expected publication warning not to count as fatal decode error")
	}
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := WrapError(originalErr, CategoryNetwork, "publish failed").
		Warning().
		Retryable().
		Build()

	if !errors.Is(err, originalErr) {
		t.Error("expected cause to be reachable with errors.Is")
	}
	if !err.CanRetry() {
		t.Error("expected retryable error")
	}
	if err.Error() != "[network:warning] publish failed: connection refused" {
		t.Errorf("unexpected Error() = %q", err.Error())
	}
}
