// Package proposal turns an analyzed source schema into the initial table
// mappings a user reviews and edits.
package proposal

import (
	"fmt"
	"sort"

	"schema-mapper/internal/mapping"
	"schema-mapper/internal/schema"
	"schema-mapper/internal/typepolicy"
)

// SyntheticKey is the primary key column added to tables that have none.
const (
	SyntheticKey       = "synth_id"
	SyntheticKeyLength = 50
)

type Options struct {
	Dialect string
	Policy  mapping.Policy
	// OnTable is called after each table is proposed.
	OnTable func(name string)
}

type Proposal struct {
	Tables   []*mapping.Table
	Warnings []mapping.Warning
}

type builder struct {
	opts       Options
	colSeq     int
	idxSeq     int
	tableNames *namer
	indexNames *namer
	warnings   []mapping.Warning
}

// Propose maps every source table. Identities follow the source order:
// tables t1.., columns c1.. and indexes i1.., counted across the schema.
func Propose(tables []*schema.Table, opts Options) (*Proposal, error) {
	if opts.Dialect == "" {
		opts.Dialect = typepolicy.GoogleSQL
	}
	if opts.Policy == nil {
		opts.Policy = typepolicy.Default()
	}
	b := &builder{opts: opts, tableNames: newNamer(), indexNames: newNamer()}

	out := &Proposal{}
	for i, src := range tables {
		t, err := b.table(fmt.Sprintf("t%d", i+1), src)
		if err != nil {
			return nil, err
		}
		out.Tables = append(out.Tables, t)
		if opts.OnTable != nil {
			opts.OnTable(src.Name)
		}
	}
	out.Warnings = b.warnings
	return out, nil
}

func (b *builder) warn(code mapping.WarningCode, table, column, format string, args ...interface{}) {
	b.warnings = append(b.warnings, mapping.Warning{Code: code, Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

func (b *builder) table(id string, src *schema.Table) (*mapping.Table, error) {
	t := &mapping.Table{
		ID:      id,
		Name:    b.tableNames.take(src.Name),
		SrcName: src.Name,
		Dialect: b.opts.Dialect,
	}
	if t.Name != src.Name {
		b.warn(mapping.WarnNameChanged, id, "", "table %q renamed to %q", src.Name, t.Name)
	}
	if src.CycleBroken {
		b.warn(mapping.WarnCycleBroken, id, "", "table %q is ordered ahead of a foreign key dependency to break a cycle", src.Name)
	}

	cols := append([]*schema.Column(nil), src.Columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })

	names := newNamer()
	bySource := make(map[string]mapping.Column, len(cols))
	for i, sc := range cols {
		col, err := b.column(t, sc, names, i+1)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, col)
		bySource[sc.Name] = col
	}

	if len(src.PrimaryKey()) == 0 {
		b.colSeq++
		name := names.take(SyntheticKey)
		t.Columns = append(t.Columns, mapping.Column{
			SpID:           fmt.Sprintf("c%d", b.colSeq),
			SpOrder:        len(t.Columns) + 1,
			SpColName:      name,
			SpDataType:     stringType(b.opts.Dialect),
			SpIsPk:         true,
			SpIsNotNull:    true,
			SpColMaxLength: mapping.LengthOf(SyntheticKeyLength),
		})
		b.warn(mapping.WarnSyntheticKey, id, name, "table %q has no primary key, added %s", src.Name, name)
	}

	for _, si := range src.Indexes {
		t.Indexes = append(t.Indexes, b.index(t, si, bySource))
	}
	return t, nil
}

func stringType(dialect string) string {
	if dialect == typepolicy.PostgreSQL {
		return "VARCHAR"
	}
	return "STRING"
}

func (b *builder) column(t *mapping.Table, sc *schema.Column, names *namer, order int) (mapping.Column, error) {
	b.colSeq++
	id := fmt.Sprintf("c%d", b.colSeq)

	spType, length, known := spannerType(b.opts.Dialect, sc)
	if !known {
		b.warn(mapping.WarnTypeFallback, t.ID, id, "%s.%s: no mapping for %s, using %s(MAX)", t.SrcName, sc.Name, sc.NativeType, spType)
	}
	bound, err := b.opts.Policy.MaxLengthFor(b.opts.Dialect, spType)
	if err != nil {
		return mapping.Column{}, fmt.Errorf("propose %s.%s: %w", t.SrcName, sc.Name, err)
	}
	fitted, truncated, err := mapping.FitLength(bound, length)
	if err != nil {
		return mapping.Column{}, fmt.Errorf("propose %s.%s: %w", t.SrcName, sc.Name, err)
	}
	if truncated {
		b.warn(mapping.WarnLengthTruncated, t.ID, id, "%s.%s: length %s exceeds %s limit, set to %s", t.SrcName, sc.Name, length, spType, fitted)
	}

	name := names.take(sc.Name)
	if name != sc.Name {
		b.warn(mapping.WarnNameChanged, t.ID, id, "%s.%s renamed to %q", t.SrcName, sc.Name, name)
	}

	return mapping.Column{
		SrcID:           id,
		SpID:            id,
		SrcOrder:        order,
		SpOrder:         order,
		SrcColName:      sc.Name,
		SrcDataType:     sc.NativeType,
		SrcIsPk:         sc.IsPK,
		SrcIsNotNull:    !sc.IsNullable,
		SrcColMaxLength: sourceLength(sc),
		SpColName:       name,
		SpDataType:      spType,
		SpIsPk:          sc.IsPK,
		SpIsNotNull:     !sc.IsNullable || sc.IsPK,
		SpColMaxLength:  fitted,
	}, nil
}

// index carries a source index over. Keys whose column is not part of the
// table mapping stay pending, after the confirmed ones.
func (b *builder) index(t *mapping.Table, si *schema.Index, bySource map[string]mapping.Column) mapping.Index {
	b.idxSeq++
	idx := mapping.Index{
		ID:     fmt.Sprintf("i%d", b.idxSeq),
		Name:   b.indexNames.take(si.Name),
		Unique: si.Unique,
	}
	keys := append([]schema.IndexColumn(nil), si.Columns...)
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Seq < keys[j].Seq })

	next := 1
	for i, k := range keys {
		ic := mapping.IndexColumn{
			SrcColName: k.Column,
			SrcDesc:    k.Desc,
			SrcOrder:   i + 1,
		}
		if col, ok := bySource[k.Column]; ok {
			ic.SrcColID = col.SrcID
			ic.SpColID = col.SpID
			ic.SpColName = col.SpColName
			ic.SpDesc = k.Desc
			ic.SpOrder = next
			next++
		} else {
			b.colSeq++
			ic.SrcColID = fmt.Sprintf("c%d", b.colSeq)
		}
		idx.Columns = append(idx.Columns, ic)
	}
	sort.SliceStable(idx.Columns, func(i, j int) bool {
		return !idx.Columns[i].Pending() && idx.Columns[j].Pending()
	})
	return idx
}
