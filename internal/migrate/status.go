package migrate

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/calljmp/cli/pkg/types"
)

var (
	styleApplied  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleSkipped  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleTampered = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// StatusLog prints per-migration progress lines. A nil *StatusLog discards
// all output, which keeps tests and library callers quiet.
type StatusLog struct {
	out io.Writer
}

// NewStatusLog returns a log writing to out.
func NewStatusLog(out io.Writer) *StatusLog {
	return &StatusLog{out: out}
}

// Applied reports a freshly applied migration in green.
func (l *StatusLog) Applied(f types.MigrationFile) {
	l.println(styleApplied.Render(fmt.Sprintf("✓ %d: %s", f.Version, f.Name)))
}

// Skipped reports an already-applied migration in gray.
func (l *StatusLog) Skipped(f types.MigrationFile) {
	l.println(styleSkipped.Render(fmt.Sprintf("✓ %d: %s", f.Version, f.Name)))
}

// Failed reports a migration whose statements errored.
func (l *StatusLog) Failed(f types.MigrationFile) {
	l.println(styleFailed.Render(fmt.Sprintf("✗ %d: %s", f.Version, f.Name)))
}

// Tampered reports an applied migration whose file content changed.
func (l *StatusLog) Tampered(f types.MigrationFile) {
	l.println(styleTampered.Render(
		fmt.Sprintf("Migration %d (%s) has been modified", f.Version, f.Name)))
}

func (l *StatusLog) println(line string) {
	if l == nil || l.out == nil {
		return
	}
	fmt.Fprintln(l.out, line)
}
