package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"schema-mapper/internal/dialect"
)

// Analyze reads tables, columns, foreign keys and secondary indexes of one
// schema and returns the tables in foreign key dependency order.
func Analyze(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string) ([]*Table, error) {
	target := d.SchemaName(schemaName)

	// Keys are upper-cased so Oracle's upper-case names still match.
	tableMap := make(map[string]*Table)
	var tables []*Table

	// --- Step 1: Tables ---
	rows, err := db.QueryContext(ctx, d.TablesQuery(), target)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		t := &Table{Name: name, Dependencies: []string{}}
		tableMap[strings.ToUpper(name)] = t
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	// --- Step 2: Columns ---
	if err := readColumns(ctx, db, d, target, tableMap); err != nil {
		return nil, err
	}

	// --- Step 3: Foreign Keys ---
	fkRows, err := db.QueryContext(ctx, d.ForeignKeysQuery(), target)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer fkRows.Close()

	for fkRows.Next() {
		var tName, cConst, cName, rTable, rCol sql.NullString
		if err := fkRows.Scan(&tName, &cConst, &cName, &rTable, &rCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if !tName.Valid || !rTable.Valid || strings.EqualFold(tName.String, rTable.String) {
			continue
		}
		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			continue
		}
		// references to tables outside the schema are not followed
		ref, ok := tableMap[strings.ToUpper(rTable.String)]
		if !ok {
			continue
		}
		t.Dependencies = append(t.Dependencies, ref.Name)
		t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
			Column:    cName.String,
			RefTable:  ref.Name,
			RefColumn: rCol.String,
		})
	}
	if err := fkRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	// --- Step 4: Indexes ---
	if err := readIndexes(ctx, db, d, target, tableMap); err != nil {
		return nil, err
	}

	return SortTablesByFKCount(tables), nil
}

func readColumns(ctx context.Context, db *sql.DB, d dialect.Dialect, target string, tableMap map[string]*Table) error {
	colRows, err := db.QueryContext(ctx, d.ColumnsQuery(), target)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	defer colRows.Close()

	for colRows.Next() {
		var tName, cName, dType, cLen, isNull, cKey, extra sql.NullString
		var ordinal sql.NullInt64
		if err := colRows.Scan(&tName, &cName, &dType, &cLen, &isNull, &cKey, &extra, &ordinal); err != nil {
			return fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			continue
		}
		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			continue
		}

		extraLower := strings.ToLower(extra.String)
		col := &Column{
			Name:       cName.String,
			DataType:   d.NormalizeType(dType.String),
			NativeType: dType.String,
			Ordinal:    int(ordinal.Int64),
			IsNullable: strings.EqualFold(isNull.String, "YES"),
			IsPK:       strings.Contains(cKey.String, "PRI"),
			IsAutoInc: strings.Contains(extraLower, "auto_increment") ||
				strings.Contains(extraLower, "identity") ||
				strings.Contains(extraLower, "nextval"),
		}
		if col.Ordinal == 0 {
			col.Ordinal = len(t.Columns) + 1
		}
		if cLen.Valid && cLen.String != "" {
			// Oracle and some drivers hand numbers back as decimals
			if f, err := cast.ToFloat64E(cLen.String); err == nil {
				n := int64(f)
				marker := d.MaxLengthMarker()
				switch {
				case marker != 0 && n == marker:
					col.MaxLength = true
				case n > 0:
					col.Length = n
				}
			}
		}
		t.Columns = append(t.Columns, col)
	}
	if err := colRows.Err(); err != nil {
		return fmt.Errorf("error iterating columns: %w", err)
	}
	return nil
}

func readIndexes(ctx context.Context, db *sql.DB, d dialect.Dialect, target string, tableMap map[string]*Table) error {
	idxRows, err := db.QueryContext(ctx, d.IndexesQuery(), target)
	if err != nil {
		return fmt.Errorf("failed to query indexes: %w", err)
	}
	defer idxRows.Close()

	byName := make(map[string]*Index)
	for idxRows.Next() {
		var tName, iName, cName, isDesc, isUnique sql.NullString
		var seq sql.NullInt64
		if err := idxRows.Scan(&tName, &iName, &cName, &seq, &isDesc, &isUnique); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		if !tName.Valid || !iName.Valid || !cName.Valid {
			continue
		}
		t, ok := tableMap[strings.ToUpper(tName.String)]
		if !ok {
			continue
		}
		key := strings.ToUpper(tName.String) + "." + strings.ToUpper(iName.String)
		idx, ok := byName[key]
		if !ok {
			idx = &Index{Name: iName.String, Unique: isUnique.String == "YES"}
			byName[key] = idx
			t.Indexes = append(t.Indexes, idx)
		}
		idx.Columns = append(idx.Columns, IndexColumn{
			Column: cName.String,
			Seq:    int(seq.Int64),
			Desc:   isDesc.String == "YES",
		})
	}
	if err := idxRows.Err(); err != nil {
		return fmt.Errorf("error iterating indexes: %w", err)
	}
	return nil
}

// SortTablesByFKCount orders tables so that referenced tables come first.
// Dependencies on tables outside the set count as placed. A cycle is broken
// at one of its own members, chosen by a scoring heuristic and marked
// CycleBroken.
func SortTablesByFKCount(tables []*Table) []*Table {
	var sorted []*Table
	processed := make(map[string]bool)
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	open := func(dep string) bool {
		_, known := byName[dep]
		return known && !processed[dep]
	}

	for len(sorted) < len(tables) {
		added := false

		// Pass 1: tables whose dependencies are all placed
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}
			ready := true
			for _, dep := range t.Dependencies {
				if open(dep) {
					ready = false
					break
				}
			}
			if ready {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
			}
		}
		if added {
			continue
		}

		// Pass 2: a cycle. Only tables on it are candidates. Prefer few open
		// dependencies, and tables that take part in a two-way reference.
		var best *Table
		bestScore := -999999
		for _, t := range tables {
			if processed[t.Name] || !onCycle(t, byName, open) {
				continue
			}
			score := 0
			circular := false
			for _, dep := range t.Dependencies {
				if !open(dep) {
					continue
				}
				score -= 100
				if !circular {
					for _, back := range byName[dep].Dependencies {
						if back == t.Name {
							circular = true
							break
						}
					}
				}
			}
			if circular {
				score += 500
			}
			if score > bestScore || (score == bestScore && (best == nil || t.Name > best.Name)) {
				bestScore = score
				best = t
			}
		}
		if best == nil {
			break
		}
		best.CycleBroken = true
		sorted = append(sorted, best)
		processed[best.Name] = true
	}

	return sorted
}

// onCycle reports whether t can reach itself through open dependencies.
func onCycle(t *Table, byName map[string]*Table, open func(string) bool) bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), t.Dependencies...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !open(name) || seen[name] {
			continue
		}
		if name == t.Name {
			return true
		}
		seen[name] = true
		stack = append(stack, byName[name].Dependencies...)
	}
	return false
}
