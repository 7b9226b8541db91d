// Package report narrates an upgrade run to the end user as sanitised HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sitemigrate/internal/migration"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

// Builder collects what happened during one upgrade.
type Builder struct {
	obsolete *[2]versioning.Tuple
	steps    []migration.StepResult
	fixups   []string
	assets   int
	warnings []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// ObsoleteApp records that the document was saved by a newer application.
func (b *Builder) ObsoleteApp(saved, running versioning.Tuple) *Builder {
	b.obsolete = &[2]versioning.Tuple{saved, running}
	return b
}

// Steps records executed migration steps.
func (b *Builder) Steps(results []migration.StepResult) *Builder {
	b.steps = append(b.steps, results...)
	return b
}

// Fixups records fix-up actions.
func (b *Builder) Fixups(actions []string) *Builder {
	b.fixups = append(b.fixups, actions...)
	return b
}

// Assets records how many static asset URLs were repointed.
func (b *Builder) Assets(rewritten int) *Builder {
	b.assets += rewritten
	return b
}

// Warning records a non-fatal problem worth telling the user about.
func (b *Builder) Warning(msg string) *Builder {
	b.warnings = append(b.warnings, msg)
	return b
}

// Empty reports whether there is nothing to tell.
func (b *Builder) Empty() bool {
	return b.obsolete == nil && len(b.steps) == 0 && len(b.fixups) == 0 && b.assets == 0 && len(b.warnings) == 0
}

// ObsoleteWarning is the text shown for documents saved by a newer editor.
func ObsoleteWarning(saved, running versioning.Tuple) string {
	return fmt.Sprintf("This website was saved with a newer version of the editor (%s) than the one you are running (%s). "+
		"It was opened without being upgraded, and some features may not work as expected.", saved, running)
}

// Markdown renders the report as markdown. It returns "" when empty.
func (b *Builder) Markdown() string {
	if b.Empty() {
		return ""
	}
	var sb strings.Builder
	if b.obsolete != nil {
		fmt.Fprintf(&sb, "**Warning:** %s\n\n", ObsoleteWarning(b.obsolete[0], b.obsolete[1]))
	}
	if len(b.steps) > 0 {
		sb.WriteString("## Website upgraded\n\n")
		for _, s := range b.steps {
			fmt.Fprintf(&sb, "### Version %s\n\n", s.Target)
			if len(s.Actions) == 0 {
				sb.WriteString("- No changes were needed.\n")
			}
			for _, a := range s.Actions {
				fmt.Fprintf(&sb, "- %s\n", a)
			}
			sb.WriteString("\n")
		}
	}
	if len(b.fixups) > 0 || b.assets > 0 {
		sb.WriteString("## Repairs\n\n")
		for _, a := range b.fixups {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
		if b.assets > 0 {
			fmt.Fprintf(&sb, "- Updated %d static asset URL(s) to the current editor.\n", b.assets)
		}
		sb.WriteString("\n")
	}
	if len(b.warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range b.warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}
	return sb.String()
}

// HTML renders the report to sanitised HTML. It returns "" when empty.
func (b *Builder) HTML() (string, error) {
	md := b.Markdown()
	if md == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return bluemonday.UGCPolicy().Sanitize(buf.String()), nil
}
