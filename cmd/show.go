package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"schema-mapper/internal/mapfile"
	"schema-mapper/internal/mapping"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [table]",
	Short: "Show the mapping of every table, or the columns and indexes of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := mapfile.Load(mappingPath())
		if err != nil {
			return err
		}

		if len(args) == 0 {
			if showJSON {
				return printDocument(doc)
			}
			fmt.Printf("Target dialect: %s, source: %s %s\n", doc.Target.Dialect, doc.Source.Driver, doc.Source.Schema)
			for i, t := range doc.Tables {
				state := ""
				if t.Frozen {
					state = " [frozen]"
				}
				pending := len(t.PendingIndexColumns())
				fmt.Printf("[%02d] %-4s %-24s <- %-24s %2d columns, %d indexes, %d pending%s\n",
					i+1, t.ID, t.Name, t.SrcName, len(t.Columns), len(t.Indexes), pending, state)
			}
			return nil
		}

		t, err := tableRef(doc, args[0])
		if err != nil {
			return err
		}
		if showJSON {
			return printDocument(&mapfile.Document{Version: doc.Version, Source: doc.Source, Target: doc.Target, Tables: []*mapping.Table{t}})
		}
		printTable(t)
		return nil
	},
}

func printDocument(doc *mapfile.Document) error {
	data, err := mapfile.Encode(doc, true)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func flag(b bool, s string) string {
	if b {
		return s
	}
	return ""
}

func printTable(t *mapping.Table) {
	fmt.Printf("%s  %s <- %s (%s)\n", t.ID, t.Name, t.SrcName, t.Dialect)
	fmt.Printf("  %-3s %-6s %-20s %-14s %-4s %-8s <- %-20s %s\n", "#", "id", "name", "type", "pk", "notnull", "source", "source type")
	for _, c := range t.Columns {
		typ := c.SpDataType
		if !c.SpColMaxLength.IsZero() {
			typ = fmt.Sprintf("%s(%s)", c.SpDataType, c.SpColMaxLength)
		}
		src := c.SrcColName
		if c.SrcID == "" {
			src = "(added)"
		}
		fmt.Printf("  %-3d %-6s %-20s %-14s %-4s %-8s <- %-20s %s\n",
			c.SpOrder, c.SpID, c.SpColName, typ, flag(c.SpIsPk, "PK"), flag(c.SpIsNotNull, "NN"), src, c.SrcDataType)
	}
	for _, idx := range t.Indexes {
		fmt.Printf("  index %s%s\n", idx.Name, flag(idx.Unique, " (unique)"))
		for _, ic := range idx.Columns {
			if ic.Pending() {
				fmt.Printf("    -  %-20s pending (source %s)\n", "?", ic.SrcColName)
				continue
			}
			fmt.Printf("    %d. %-20s %s\n", ic.SpOrder, ic.SpColName, flag(ic.SpDesc, "DESC"))
		}
	}
}

func init() {
	RootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the mapping document as JSON")
}
