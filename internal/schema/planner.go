package schema

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/calljmp/cli/pkg/types"
)

// Plan computes the ordered statement sequence transforming the schema
// described by currentSQL into the schema described by targetSQL. Both
// scripts are loaded into ephemeral in-memory databases, diffed, and
// disposed before returning. Pure: no database outside this call is touched.
func Plan(currentSQL, targetSQL string) (*types.MigrationPlan, error) {
	current, err := openMemoryDB(currentSQL)
	if err != nil {
		return nil, fmt.Errorf("loading current schema: %w", err)
	}
	defer current.Close()

	target, err := openMemoryDB(targetSQL)
	if err != nil {
		return nil, fmt.Errorf("loading target schema: %w", err)
	}
	defer target.Close()

	return planBetween(current, target)
}

// PlanAgainst computes the plan transforming the live database db into the
// schema described by targetSQL. Unlike Plan, row counts of db participate
// in feasibility checks.
func PlanAgainst(db *sql.DB, targetSQL string) (*types.MigrationPlan, error) {
	target, err := openMemoryDB(targetSQL)
	if err != nil {
		return nil, fmt.Errorf("loading target schema: %w", err)
	}
	defer target.Close()

	return planBetween(db, target)
}

// openMemoryDB opens a private in-memory database and loads the given schema
// script into it. The single-connection pool keeps every statement on the
// same in-memory database.
func openMemoryDB(schemaSQL string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if strings.TrimSpace(schemaSQL) != "" {
		if _, err := db.Exec(schemaSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", types.ErrSchemaInvalid, err)
		}
	}
	return db, nil
}

// tableDiff carries the classified table-level changes of one plan.
type tableDiff struct {
	dropped   []string                      // lowercased, current order
	added     []string                      // lowercased, target order
	addOnly   map[string][]types.ColumnInfo // table -> columns to ADD, target order
	recreated map[string]bool               // tables rewritten via rename-swap
}

func planBetween(current, target *sql.DB) (*types.MigrationPlan, error) {
	curTables, err := ListObjects(current, types.KindTable)
	if err != nil {
		return nil, err
	}
	tgtTables, err := ListObjects(target, types.KindTable)
	if err != nil {
		return nil, err
	}
	curMap, tgtMap := ObjectMap(curTables), ObjectMap(tgtTables)

	diff := tableDiff{
		addOnly:   make(map[string][]types.ColumnInfo),
		recreated: make(map[string]bool),
	}
	for _, t := range curTables {
		if _, ok := tgtMap[t.Key()]; !ok {
			diff.dropped = append(diff.dropped, t.Key())
		}
	}
	var modified []string
	for _, t := range tgtTables {
		cur, ok := curMap[t.Key()]
		if !ok {
			diff.added = append(diff.added, t.Key())
			continue
		}
		if Normalize(cur.SQL) != Normalize(t.SQL) {
			modified = append(modified, t.Key())
		}
	}

	for _, name := range modified {
		addedCols, inPlace, err := classifyModification(current, target, name)
		if err != nil {
			return nil, err
		}
		if inPlace {
			diff.addOnly[name] = addedCols
		} else {
			diff.recreated[name] = true
		}
	}

	// A recreated table invalidates the constraint metadata of every table
	// transitively referencing it; pull those into the recreate set. An
	// in-place column addition planned for such a table folds into its
	// recreate, which emits the full target CREATE text.
	tgtGraph, err := BuildForeignKeyGraph(target)
	if err != nil {
		return nil, err
	}
	for name := range copyKeys(diff.recreated) {
		for _, dep := range tgtGraph.Dependents(name) {
			if _, exists := curMap[dep]; exists {
				diff.recreated[dep] = true
				delete(diff.addOnly, dep)
			}
		}
	}

	if err := checkFeasibility(current, target, diff.recreated); err != nil {
		return nil, err
	}

	// Ordering graph: target edges, augmented with the current edges of
	// dropped tables (which the target graph cannot know about).
	curGraph, err := BuildForeignKeyGraph(current)
	if err != nil {
		return nil, err
	}
	droppedSet := make(map[string]bool, len(diff.dropped))
	for _, t := range diff.dropped {
		droppedSet[t] = true
	}
	ordering := NewForeignKeyGraph()
	for _, e := range tgtGraph.Edges() {
		ordering.AddReference(e[0], e[1])
	}
	for _, e := range curGraph.Edges() {
		if droppedSet[e[0]] || droppedSet[e[1]] {
			ordering.AddReference(e[0], e[1])
		}
	}

	plan := &types.MigrationPlan{}
	emitTableSteps(plan, &diff, droppedSet, ordering, current, target, tgtMap, tgtTables)
	if err := emitObjectSteps(plan, current, target, droppedSet, diff.recreated); err != nil {
		return nil, err
	}
	return plan, nil
}

// classifyModification decides between the in-place ALTER TABLE ADD COLUMN
// path and a full recreate for one modified table. In-place requires that
// the existing columns survive unchanged and in place, that every added
// column is appended and nullable or defaulted, and that the foreign key
// clauses did not change. Anything else (dropped columns, type changes,
// reordering, constraint edits) goes through the rename-swap path.
func classifyModification(current, target *sql.DB, table string) ([]types.ColumnInfo, bool, error) {
	curCols, err := Columns(current, table)
	if err != nil {
		return nil, false, err
	}
	tgtCols, err := Columns(target, table)
	if err != nil {
		return nil, false, err
	}
	if len(tgtCols) <= len(curCols) {
		return nil, false, nil // dropped or replaced columns
	}

	// ALTER TABLE ADD COLUMN appends, so the existing columns must form an
	// unchanged prefix of the target.
	for i, cur := range curCols {
		tgt := tgtCols[i]
		if !strings.EqualFold(cur.Name, tgt.Name) || !sameColumn(cur, tgt) {
			return nil, false, nil
		}
	}

	var added []types.ColumnInfo
	for _, c := range tgtCols[len(curCols):] {
		if c.NotNull && c.DefaultValue == nil {
			return nil, false, nil // needs a backfill, recreate
		}
		added = append(added, c)
	}

	// A changed foreign key clause is invisible in table_info; it forces a
	// recreate even when the column set is add-only.
	curKeys, err := ForeignKeys(current, table)
	if err != nil {
		return nil, false, err
	}
	tgtKeys, err := ForeignKeys(target, table)
	if err != nil {
		return nil, false, err
	}
	if !sameForeignKeys(curKeys, tgtKeys) {
		return nil, false, nil
	}
	return added, true, nil
}

// sameForeignKeys compares two foreign key clause lists structurally.
func sameForeignKeys(a, b []types.ForeignKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].ReferencedTable, b[i].ReferencedTable) ||
			a[i].OnDelete != b[i].OnDelete || a[i].OnUpdate != b[i].OnUpdate ||
			len(a[i].Columns) != len(b[i].Columns) {
			return false
		}
		for j := range a[i].Columns {
			if !strings.EqualFold(a[i].Columns[j].From, b[i].Columns[j].From) ||
				!strings.EqualFold(a[i].Columns[j].To, b[i].Columns[j].To) {
				return false
			}
		}
	}
	return true
}

// sameColumn compares the structural column attributes the planner preserves:
// declared type (case-insensitive), NOT NULL, default literal, PK position.
func sameColumn(a, b types.ColumnInfo) bool {
	if !strings.EqualFold(a.DeclaredType, b.DeclaredType) {
		return false
	}
	if a.NotNull != b.NotNull || a.PrimaryKeyRank != b.PrimaryKeyRank {
		return false
	}
	if (a.DefaultValue == nil) != (b.DefaultValue == nil) {
		return false
	}
	if a.DefaultValue != nil && *a.DefaultValue != *b.DefaultValue {
		return false
	}
	return true
}

// checkFeasibility rejects plans that would lose rows: a recreated table with
// existing rows cannot gain a NOT NULL column without a default, because the
// copy statement would insert NULL into it.
func checkFeasibility(current, target *sql.DB, recreated map[string]bool) error {
	for _, table := range sortedKeys(recreated) {
		var count int64
		row := current.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table)))
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("counting rows of %s: %w", table, err)
		}
		if count == 0 {
			continue
		}
		curCols, err := Columns(current, table)
		if err != nil {
			return err
		}
		tgtCols, err := Columns(target, table)
		if err != nil {
			return err
		}
		curNames := make(map[string]bool, len(curCols))
		for _, c := range curCols {
			curNames[strings.ToLower(c.Name)] = true
		}
		for _, c := range tgtCols {
			if curNames[strings.ToLower(c.Name)] {
				continue
			}
			if c.NotNull && c.DefaultValue == nil && c.PrimaryKeyRank == 0 {
				return fmt.Errorf("%w: table %s has %d rows and column %s is NOT NULL without a default",
					types.ErrPlanInfeasible, table, count, c.Name)
			}
		}
	}
	return nil
}

// emitTableSteps appends the table phases: drop removed, add new, in-place
// column additions, then the rename/create/copy/drop recreate sequence.
func emitTableSteps(plan *types.MigrationPlan, diff *tableDiff, droppedSet map[string]bool,
	ordering *ForeignKeyGraph, current, target *sql.DB,
	tgtMap map[string]types.SchemaObject, tgtTables []types.SchemaObject) {

	union := make([]string, 0, len(diff.dropped)+len(diff.added)+len(diff.recreated))
	union = append(union, diff.dropped...)
	union = append(union, diff.added...)
	union = append(union, sortedKeys(diff.recreated)...)
	topo := ordering.TopoOrder(union)

	// Phase D: drop removed tables, dependents before their dependencies.
	for _, t := range reversed(topo) {
		if droppedSet[t] {
			plan.Steps = append(plan.Steps, types.MigrationStep{
				Kind:       types.KindTable,
				TargetName: t,
				Statements: []string{fmt.Sprintf("DROP TABLE %s", t)},
			})
		}
	}

	// Phase A: create new tables, dependencies before dependents.
	addedSet := make(map[string]bool, len(diff.added))
	for _, t := range diff.added {
		addedSet[t] = true
	}
	for _, t := range topo {
		if addedSet[t] {
			plan.Steps = append(plan.Steps, types.MigrationStep{
				Kind:       types.KindTable,
				TargetName: t,
				Statements: []string{tgtMap[t].SQL},
			})
		}
	}

	// Phase M-add: in-place column additions, in target declaration order.
	for _, t := range tgtTables {
		cols, ok := diff.addOnly[t.Key()]
		if !ok || len(cols) == 0 {
			continue
		}
		stmts := make([]string, 0, len(cols))
		for _, c := range cols {
			stmts = append(stmts, buildAddColumn(t.Key(), c))
		}
		plan.Steps = append(plan.Steps, types.MigrationStep{
			Kind:       types.KindTable,
			TargetName: t.Key(),
			Statements: stmts,
		})
	}

	// Phase R: rename-swap recreation. All renames first, then creates in
	// dependency order, then row copies, then drops of the renamed originals
	// in reverse dependency order. Only legal under deferred foreign keys.
	var recreateOrder []string
	for _, t := range topo {
		if diff.recreated[t] {
			recreateOrder = append(recreateOrder, t)
		}
	}
	for _, t := range recreateOrder {
		plan.Steps = append(plan.Steps, types.MigrationStep{
			Kind:               types.KindTable,
			TargetName:         t,
			Statements:         []string{fmt.Sprintf("ALTER TABLE %s RENAME TO %s_old", t, t)},
			RequiresDeferredFK: true,
		})
	}
	for _, t := range recreateOrder {
		plan.Steps = append(plan.Steps, types.MigrationStep{
			Kind:       types.KindTable,
			TargetName: t,
			Statements: []string{tgtMap[t].SQL},
		})
	}
	for _, t := range recreateOrder {
		if stmt := buildRowCopy(current, target, t); stmt != "" {
			plan.Steps = append(plan.Steps, types.MigrationStep{
				Kind:       types.KindTable,
				TargetName: t,
				Statements: []string{stmt},
			})
		}
	}
	for _, t := range reversed(recreateOrder) {
		plan.Steps = append(plan.Steps, types.MigrationStep{
			Kind:       types.KindTable,
			TargetName: t,
			Statements: []string{fmt.Sprintf("DROP TABLE %s_old", t)},
		})
	}
}

// buildAddColumn renders one ALTER TABLE ADD COLUMN statement from
// introspected column metadata.
func buildAddColumn(table string, c types.ColumnInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ALTER TABLE %s ADD COLUMN %s", table, c.Name)
	if c.DeclaredType != "" {
		b.WriteString(" " + c.DeclaredType)
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.DefaultValue != nil {
		b.WriteString(" DEFAULT " + *c.DefaultValue)
	}
	return b.String()
}

// buildRowCopy renders the INSERT ... SELECT moving rows from the renamed
// original into the recreated table, over the columns common to both
// versions. Returns "" when no column survives.
func buildRowCopy(current, target *sql.DB, table string) string {
	curCols, err := Columns(current, table)
	if err != nil {
		return ""
	}
	tgtCols, err := Columns(target, table)
	if err != nil {
		return ""
	}
	curNames := make(map[string]bool, len(curCols))
	for _, c := range curCols {
		curNames[strings.ToLower(c.Name)] = true
	}
	var common []string
	for _, c := range tgtCols {
		if curNames[strings.ToLower(c.Name)] {
			common = append(common, c.Name)
		}
	}
	if len(common) == 0 {
		return ""
	}
	cols := strings.Join(common, ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s_old", table, cols, cols, table)
}

// emitObjectSteps appends the index, trigger, and view phases. Indexes and
// triggers die with a recreated or dropped table, so only their CREATE is
// replayed; views survive table rewrites by name and are always explicitly
// dropped before recreation.
func emitObjectSteps(plan *types.MigrationPlan, current, target *sql.DB,
	droppedTables, recreatedTables map[string]bool) error {

	for _, kind := range []types.ObjectKind{types.KindIndex, types.KindTrigger, types.KindView} {
		curObjs, err := ListObjects(current, kind)
		if err != nil {
			return err
		}
		tgtObjs, err := ListObjects(target, kind)
		if err != nil {
			return err
		}
		curMap, tgtMap := ObjectMap(curObjs), ObjectMap(tgtObjs)

		for _, o := range curObjs {
			if _, keep := tgtMap[o.Key()]; keep {
				continue
			}
			owner := owningTable(kind, o.SQL)
			if kind != types.KindView && (droppedTables[owner] || recreatedTables[owner]) {
				continue // destroyed together with its table
			}
			plan.Steps = append(plan.Steps, types.MigrationStep{
				Kind:       kind,
				TargetName: o.Key(),
				Statements: []string{fmt.Sprintf("DROP %s %s", kind.Keyword(), o.Key())},
			})
		}

		for _, o := range tgtObjs {
			cur, exists := curMap[o.Key()]
			owner := owningTable(kind, o.SQL)
			if !exists {
				plan.Steps = append(plan.Steps, types.MigrationStep{
					Kind:       kind,
					TargetName: o.Key(),
					Statements: []string{o.SQL},
				})
				continue
			}
			changed := Normalize(cur.SQL) != Normalize(o.SQL)
			if !changed && !recreatedTables[owner] {
				continue
			}
			// Whether the old object still exists depends on its previous
			// owner, which may differ from the target's.
			curOwner := owningTable(kind, cur.SQL)
			var stmts []string
			if kind == types.KindView || !(recreatedTables[curOwner] || droppedTables[curOwner]) {
				stmts = append(stmts, fmt.Sprintf("DROP %s %s", kind.Keyword(), o.Key()))
			}
			stmts = append(stmts, o.SQL)
			plan.Steps = append(plan.Steps, types.MigrationStep{
				Kind:       kind,
				TargetName: o.Key(),
				Statements: stmts,
			})
		}
	}
	return nil
}

// sortedKeys returns the map keys in lexicographic order.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// copyKeys snapshots a set so it can be extended while iterating.
func copyKeys(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
