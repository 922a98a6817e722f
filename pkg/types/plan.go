package types

// MigrationStep is an atomic unit of a migration plan. Its statements must
// run in order and together.
type MigrationStep struct {
	Kind       ObjectKind // Kind of the object the step targets.
	TargetName string     // Lowercased object name.
	Statements []string   // Executable SQL, in order.

	// RequiresDeferredFK marks steps that are only legal while foreign key
	// checks are deferred to transaction commit (table rename-swap).
	RequiresDeferredFK bool
}

// MigrationPlan is an ordered sequence of steps transforming the current
// schema into the target schema. A plan is created pure-functionally from two
// schema snapshots, executed once, then discarded.
type MigrationPlan struct {
	Steps []MigrationStep
}

// Empty reports whether the plan has no steps.
func (p *MigrationPlan) Empty() bool {
	return len(p.Steps) == 0
}

// AnyDeferredFK reports whether any step requires deferred foreign keys.
// The executable form of the plan is wrapped in
// PRAGMA defer_foreign_keys = ON/OFF exactly when this is true.
func (p *MigrationPlan) AnyDeferredFK() bool {
	for _, s := range p.Steps {
		if s.RequiresDeferredFK {
			return true
		}
	}
	return false
}

// StatementCount returns the total number of executable statements across
// all steps, excluding the pragma wrapper.
func (p *MigrationPlan) StatementCount() int {
	n := 0
	for _, s := range p.Steps {
		n += len(s.Statements)
	}
	return n
}
