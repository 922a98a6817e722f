package schema

import (
	"fmt"

	"github.com/calljmp/cli/pkg/types"
)

// Render emits the plan's executable statement list. When any step requires
// deferred foreign keys, the whole list is bracketed by
// PRAGMA defer_foreign_keys = ON/OFF so the rename-swap sequence stays legal
// inside one transaction.
//
// With pretty set, a "-- KIND: name" comment precedes each step and blank
// lines separate groups of different kinds; the result is meant for humans
// and plan files. Without pretty, every line is executable and suitable for
// a batched prepare.
func Render(plan *types.MigrationPlan, pretty bool) []string {
	var out []string
	deferred := plan.AnyDeferredFK()
	if deferred {
		out = append(out, "PRAGMA defer_foreign_keys = ON")
	}
	var lastKind types.ObjectKind
	for i, step := range plan.Steps {
		if pretty {
			if i > 0 && step.Kind != lastKind {
				out = append(out, "")
			}
			out = append(out, fmt.Sprintf("-- %s: %s", step.Kind.Keyword(), step.TargetName))
		}
		out = append(out, step.Statements...)
		lastKind = step.Kind
	}
	if deferred {
		out = append(out, "PRAGMA defer_foreign_keys = OFF")
	}
	return out
}
