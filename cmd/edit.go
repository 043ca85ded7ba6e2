package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"schema-mapper/internal/mapping"
	"schema-mapper/internal/reconcile"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a table mapping",
	Long: `Edit a table mapping. Tables are referenced by id or target name,
columns by spId or target name. Every edit applies fully or not at all.`,
}

// columnRef resolves a column spId or target name.
func columnRef(t *mapping.Table, ref string) (string, error) {
	for _, c := range t.Columns {
		if c.SpID == ref {
			return c.SpID, nil
		}
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.SpColName, ref) {
			return c.SpID, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", mapping.ErrUnknownColumn, ref, t.Name)
}

func columnRefs(t *mapping.Table, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		id, err := columnRef(t, r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// pendingRef resolves the srcColId of a pending index entry by srcColId or
// source column name.
func pendingRef(t *mapping.Table, index, ref string) (string, error) {
	for _, p := range t.PendingIndexColumns() {
		if p.Index == index && (p.SrcColID == ref || strings.EqualFold(p.SrcColName, ref)) {
			return p.SrcColID, nil
		}
	}
	return "", fmt.Errorf("%w: no pending entry %s in %s", mapping.ErrIndexColumnNotFound, ref, index)
}

type buildEdit func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error)

// editCommand wraps one edit: load the document, apply to the table named
// by the first argument, save.
func editCommand(use, short string, args cobra.PositionalArgs, build buildEdit) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, e, err := loadWorkspace()
			if err != nil {
				return err
			}
			t, err := tableRef(doc, args[0])
			if err != nil {
				return err
			}
			edit, err := build(cmd, t, args[1:])
			if err != nil {
				return err
			}
			res, err := e.Apply(cmd.Context(), t.ID, edit)
			if err != nil {
				return err
			}
			if err := saveWorkspace(doc, e); err != nil {
				return err
			}

			for _, w := range res.Warnings {
				fmt.Printf("  ! %s\n", w)
			}
			switch {
			case res.ColumnID != "" && strings.HasPrefix(cmd.Name(), "add"):
				fmt.Printf("✓ %s: added %s\n", res.Table.Name, res.ColumnID)
			case res.IndexID != "":
				fmt.Printf("✓ %s: added index %s\n", res.Table.Name, res.IndexID)
			default:
				fmt.Printf("✓ %s updated\n", res.Table.Name)
			}
			return nil
		},
	}
}

func newAddColumnCmd() *cobra.Command {
	var (
		length     string
		primaryKey bool
		notNull    bool
	)
	c := editCommand("add-column <table> <name> <type>", "Add a target-only column", cobra.ExactArgs(3),
		func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
			l, err := mapping.ParseLength(length)
			if err != nil {
				return nil, err
			}
			return reconcile.AddColumn{
				Context: mapping.AddColumnContext{Dialect: t.Dialect, TableID: t.ID},
				Column: mapping.NewColumn{
					Name:       args[0],
					DataType:   args[1],
					MaxLength:  l,
					PrimaryKey: primaryKey,
					NotNull:    notNull,
				},
			}, nil
		})
	c.Flags().StringVar(&length, "length", "", "Length, a number or MAX")
	c.Flags().BoolVar(&primaryKey, "pk", false, "Part of the primary key")
	c.Flags().BoolVar(&notNull, "not-null", false, "NOT NULL")
	return c
}

func newUpdateColumnCmd() *cobra.Command {
	var (
		name, typ, length   string
		primaryKey, notNull bool
	)
	c := editCommand("update-column <table> <column>", "Change several fields of a column at once", cobra.ExactArgs(2),
		func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
			id, err := columnRef(t, args[0])
			if err != nil {
				return nil, err
			}
			edit := reconcile.UpdateColumn{ColumnID: id}
			flags := cmd.Flags()
			if flags.Changed("name") {
				edit.Name = &name
			}
			if flags.Changed("type") {
				edit.Type = &typ
			}
			if flags.Changed("length") {
				l, err := mapping.ParseLength(length)
				if err != nil {
					return nil, err
				}
				edit.Length = &l
			}
			if flags.Changed("pk") {
				edit.PrimaryKey = &primaryKey
			}
			if flags.Changed("not-null") {
				edit.NotNull = &notNull
			}
			return edit, nil
		})
	c.Flags().StringVar(&name, "name", "", "New target name")
	c.Flags().StringVar(&typ, "type", "", "New target type")
	c.Flags().StringVar(&length, "length", "", "New length, a number or MAX")
	c.Flags().BoolVar(&primaryKey, "pk", false, "Part of the primary key")
	c.Flags().BoolVar(&notNull, "not-null", false, "NOT NULL")
	return c
}

func newAddIndexCmd() *cobra.Command {
	var unique bool
	c := editCommand("add-index <table> <name>", "Create an empty index", cobra.ExactArgs(2),
		func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
			return reconcile.AddIndex{Name: args[0], Unique: unique}, nil
		})
	c.Flags().BoolVar(&unique, "unique", false, "UNIQUE index")
	return c
}

func newAddIndexColumnCmd() *cobra.Command {
	var desc bool
	c := editCommand("add-index-column <table> <index> <column>", "Append a key column to an index", cobra.ExactArgs(3),
		func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
			id, err := columnRef(t, args[1])
			if err != nil {
				return nil, err
			}
			return reconcile.AddIndexColumn{Index: args[0], ColumnID: id, Desc: desc}, nil
		})
	c.Flags().BoolVar(&desc, "desc", false, "Descending key")
	return c
}

func init() {
	RootCmd.AddCommand(editCmd)

	editCmd.AddCommand(
		editCommand("rename <table> <column> <name>", "Rename a target column", cobra.ExactArgs(3),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[0])
				return reconcile.Rename{ColumnID: id, Name: args[1]}, err
			}),
		editCommand("retype <table> <column> <type>", "Change a target column type", cobra.ExactArgs(3),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[0])
				return reconcile.Retype{ColumnID: id, Type: args[1]}, err
			}),
		editCommand("set-length <table> <column> <length|MAX>", "Change a target column length", cobra.ExactArgs(3),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[0])
				if err != nil {
					return nil, err
				}
				l, err := mapping.ParseLength(args[1])
				return reconcile.SetLength{ColumnID: id, Length: l}, err
			}),
		editCommand("set-pk <table> <column> <true|false>", "Add or remove a column from the primary key", cobra.ExactArgs(3),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[0])
				if err != nil {
					return nil, err
				}
				b, err := cast.ToBoolE(args[1])
				return reconcile.SetPrimaryKey{ColumnID: id, PrimaryKey: b}, err
			}),
		editCommand("set-not-null <table> <column> <true|false>", "Set or clear NOT NULL", cobra.ExactArgs(3),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[0])
				if err != nil {
					return nil, err
				}
				b, err := cast.ToBoolE(args[1])
				return reconcile.SetNotNull{ColumnID: id, NotNull: b}, err
			}),
		editCommand("reorder <table> <column>...", "Set the target column order", cobra.MinimumNArgs(2),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				ids, err := columnRefs(t, args)
				return reconcile.Reorder{Order: ids}, err
			}),
		newAddColumnCmd(),
		newUpdateColumnCmd(),
		editCommand("remove-column <table> <column>", "Remove a target column", cobra.ExactArgs(2),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[0])
				return reconcile.RemoveColumn{ColumnID: id}, err
			}),
		newAddIndexCmd(),
		editCommand("drop-index <table> <index>", "Drop an index", cobra.ExactArgs(2),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				return reconcile.DropIndex{Name: args[0]}, nil
			}),
		newAddIndexColumnCmd(),
		editCommand("remove-index-column <table> <index> <column>", "Remove a key column from an index", cobra.ExactArgs(3),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[1])
				return reconcile.RemoveIndexColumn{Index: args[0], ColumnID: id}, err
			}),
		editCommand("reorder-index <table> <index> <column>...", "Set the key order of an index", cobra.MinimumNArgs(3),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				ids, err := columnRefs(t, args[1:])
				return reconcile.ReorderIndex{Index: args[0], Order: ids}, err
			}),
		editCommand("set-desc <table> <index> <column> <true|false>", "Set the sort direction of an index key", cobra.ExactArgs(4),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				id, err := columnRef(t, args[1])
				if err != nil {
					return nil, err
				}
				b, err := cast.ToBoolE(args[2])
				return reconcile.SetDescending{Index: args[0], ColumnID: id, Desc: b}, err
			}),
		editCommand("confirm-index-column <table> <index> <source-column> <column>", "Bind a pending index entry to a target column", cobra.ExactArgs(4),
			func(cmd *cobra.Command, t *mapping.Table, args []string) (reconcile.Edit, error) {
				src, err := pendingRef(t, args[0], args[1])
				if err != nil {
					return nil, err
				}
				id, err := columnRef(t, args[2])
				return reconcile.ConfirmIndexColumn{Index: args[0], SrcColumnID: src, ColumnID: id}, err
			}),
	)
}
