// Package reconcile applies user edit intents to table mappings. Edits on
// one table are serialized and either apply fully or leave the table as it
// was.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"schema-mapper/internal/mapping"
)

var (
	ErrTableNotFound      = errors.New("table mapping not found")
	ErrTableExists        = errors.New("table mapping already loaded")
	ErrPendingIndexColumn = errors.New("index entry is pending target confirmation")
)

type Options struct {
	// BlockOnPendingIndex makes Check fail while any index entry still
	// has no target column.
	BlockOnPendingIndex bool
	// IDs generates identities for added columns and indexes. Nil uses uuids.
	IDs mapping.IDGenerator
}

// Result is the outcome of an accepted edit.
type Result struct {
	Table    *mapping.Table
	Warnings []mapping.Warning
	ColumnID string
	IndexID  string
}

type entry struct {
	mu    sync.Mutex
	table *mapping.Table
}

type Engine struct {
	policy mapping.Policy
	opts   Options
	log    *zap.Logger

	mu     sync.RWMutex
	tables map[string]*entry
	order  []string
}

func New(policy mapping.Policy, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		policy: policy,
		opts:   opts,
		log:    log.Named("reconcile"),
		tables: make(map[string]*entry),
	}
}

func (e *Engine) get(tableID string) (*entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	return ent, nil
}

// Load takes ownership of a copy of t, a proposal from the schema analysis
// step or a previously exported mapping. Inconsistent mappings are refused.
func (e *Engine) Load(t *mapping.Table) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("load: %w: table without id", mapping.ErrInconsistent)
	}
	if err := t.Validate(e.policy); err != nil {
		return fmt.Errorf("load %s: %w", t.ID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, t.ID)
	}
	e.tables[t.ID] = &entry{table: t.Clone()}
	e.order = append(e.order, t.ID)
	e.log.Debug("table loaded", zap.String("table", t.ID), zap.Int("columns", len(t.Columns)))
	return nil
}

// Replace supersedes a table mapping with a fresh proposal. Frozen tables
// cannot be replaced.
func (e *Engine) Replace(t *mapping.Table) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("replace: %w: table without id", mapping.ErrInconsistent)
	}
	if err := t.Validate(e.policy); err != nil {
		return fmt.Errorf("replace %s: %w", t.ID, err)
	}

	e.mu.Lock()
	ent, ok := e.tables[t.ID]
	if !ok {
		e.tables[t.ID] = &entry{table: t.Clone()}
		e.order = append(e.order, t.ID)
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	ent.mu.Lock()
	defer ent.mu.Unlock()
	if ent.table.Frozen {
		return fmt.Errorf("replace %s: %w", t.ID, mapping.ErrFrozen)
	}
	ent.table = t.Clone()
	e.log.Info("table superseded", zap.String("table", t.ID))
	return nil
}

// Discard abandons a table mapping.
func (e *Engine) Discard(tableID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.tables[tableID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	ent.mu.Lock()
	frozen := ent.table.Frozen
	ent.mu.Unlock()
	if frozen {
		return fmt.Errorf("discard %s: %w", tableID, mapping.ErrFrozen)
	}

	delete(e.tables, tableID)
	for i, id := range e.order {
		if id == tableID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// Snapshot returns a copy of one table mapping.
func (e *Engine) Snapshot(tableID string) (*mapping.Table, error) {
	ent, err := e.get(tableID)
	if err != nil {
		return nil, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.table.Clone(), nil
}

// Tables returns copies of all table mappings in load order.
func (e *Engine) Tables() []*mapping.Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*mapping.Table, 0, len(e.order))
	for _, id := range e.order {
		ent := e.tables[id]
		ent.mu.Lock()
		out = append(out, ent.table.Clone())
		ent.mu.Unlock()
	}
	return out
}

// Apply runs one edit against a working copy of the table and swaps it in
// only when the edit succeeds.
func (e *Engine) Apply(ctx context.Context, tableID string, edit Edit) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if edit == nil {
		return Result{}, errors.New("apply: nil edit")
	}
	ent, err := e.get(tableID)
	if err != nil {
		return Result{}, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	work := ent.table.Clone()
	out, err := edit.apply(mapping.NewStore(work, e.policy, e.opts.IDs))
	if err != nil {
		e.log.Debug("edit rejected",
			zap.String("table", tableID),
			zap.String("op", edit.op()),
			zap.Error(err))
		return Result{}, err
	}
	ent.table = work

	for _, w := range out.warnings {
		e.log.Warn(w.Message,
			zap.String("table", tableID),
			zap.String("column", w.Column),
			zap.String("code", string(w.Code)))
	}
	e.log.Info("edit applied",
		zap.String("table", tableID),
		zap.String("op", edit.op()),
		zap.Int("warnings", len(out.warnings)))

	return Result{
		Table:    work.Clone(),
		Warnings: out.warnings,
		ColumnID: out.columnID,
		IndexID:  out.indexID,
	}, nil
}

func (e *Engine) check(t *mapping.Table) error {
	err := t.Validate(e.policy)
	if !e.opts.BlockOnPendingIndex {
		return err
	}
	errs := []error{err}
	for _, ref := range t.PendingIndexColumns() {
		errs = append(errs, &mapping.ValidationError{
			Op:     "check",
			Table:  t.ID,
			Target: ref.Index,
			Err:    fmt.Errorf("%w: %s", ErrPendingIndexColumn, ref.SrcColName),
		})
	}
	return errors.Join(errs...)
}

// Check validates a table mapping as a whole, the way it must hold before
// DDL is generated from it.
func (e *Engine) Check(tableID string) error {
	t, err := e.Snapshot(tableID)
	if err != nil {
		return err
	}
	return e.check(t)
}

// CheckAll runs Check on every table and joins the failures.
func (e *Engine) CheckAll() error {
	var errs []error
	for _, t := range e.Tables() {
		errs = append(errs, e.check(t))
	}
	return errors.Join(errs...)
}

// Commit checks a table and freezes it.
func (e *Engine) Commit(tableID string) error {
	ent, err := e.get(tableID)
	if err != nil {
		return err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if err := e.check(ent.table); err != nil {
		return err
	}
	ent.table.Frozen = true
	return nil
}

// FreezeAll checks every table and freezes them all, or none when any
// check fails.
func (e *Engine) FreezeAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	locked := make([]*entry, 0, len(e.order))
	defer func() {
		for _, ent := range locked {
			ent.mu.Unlock()
		}
	}()

	var errs []error
	for _, id := range e.order {
		ent := e.tables[id]
		ent.mu.Lock()
		locked = append(locked, ent)
		errs = append(errs, e.check(ent.table))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	for _, ent := range locked {
		ent.table.Frozen = true
	}
	e.log.Info("tables frozen", zap.Int("tables", len(locked)))
	return nil
}

// ThawAll makes every table editable again.
func (e *Engine) ThawAll() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ent := range e.tables {
		ent.mu.Lock()
		ent.table.Frozen = false
		ent.mu.Unlock()
	}
}
