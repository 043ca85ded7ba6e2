package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"schema-mapper/internal/mapfile"
	"schema-mapper/internal/mapping"
	"schema-mapper/internal/proposal"
	"schema-mapper/internal/reconcile"
	"schema-mapper/internal/schema"
	"schema-mapper/internal/typepolicy"
)

var (
	tables  []string
	replace bool
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Analyze the source schema and propose Spanner table mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		existing, err := mapfile.Load(mappingPath())
		switch {
		case err == nil && !replace:
			return fmt.Errorf("%s already exists (use --replace to supersede its tables)", mappingPath())
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return err
		}

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.db.Close()
		fmt.Printf("🦅 Connected to %s (%s)\n", src.config.Name, src.config.Driver)

		log.Println("Analyzing schema...")
		allTables, err := schema.Analyze(ctx, src.db, src.dialect, src.schema)
		if err != nil {
			return err
		}
		targetTables, err := filterTables(allTables, tables)
		if err != nil {
			return err
		}

		target, err := targetConfig()
		if err != nil {
			return err
		}
		if target.Dialect == "" {
			target.Dialect = typepolicy.GoogleSQL
		}

		start := time.Now()
		uiprogress.Start()
		bar := uiprogress.AddBar(len(targetTables)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Proposing: "
		})
		prop, err := proposal.Propose(targetTables, proposal.Options{
			Dialect: target.Dialect,
			Policy:  typepolicy.Default(),
			OnTable: func(string) { bar.Incr() },
		})
		uiprogress.Stop()
		if err != nil {
			return err
		}

		doc := existing
		if doc == nil {
			doc = &mapfile.Document{Version: mapfile.Version}
		}
		doc.Source = mapfile.Source{Driver: src.config.Driver, Schema: src.schema}
		doc.Target = mapfile.Target{Dialect: target.Dialect}

		e := newEngine()
		for _, t := range doc.Tables {
			if err := e.Load(t); err != nil {
				return err
			}
		}
		if err := merge(doc, e, prop.Tables); err != nil {
			return err
		}
		if err := saveWorkspace(doc, e); err != nil {
			return err
		}

		for _, w := range prop.Warnings {
			Log.Warn(w.Message, zap.String("table", w.Table), zap.String("code", string(w.Code)))
		}

		fmt.Println("\n📊 Proposed Mappings (Dependency Order):")
		for i, t := range prop.Tables {
			fmt.Printf("[%02d/%02d] %-24s -> %-24s %d columns, %d indexes\n",
				i+1, len(prop.Tables), t.SrcName, t.Name, len(t.Columns), len(t.Indexes))
		}
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Warnings: %d, written to %s\n", len(prop.Warnings), mappingPath())
		log.Printf("Propose Done! Time Elapsed: %s", time.Since(start))
		return nil
	},
}

// filterTables keeps the requested tables, by flag then by config. No
// request keeps them all.
func filterTables(all []*schema.Table, requested []string) ([]*schema.Table, error) {
	if len(requested) == 0 {
		requested = viper.GetStringSlice("settings.tables")
	}
	if len(requested) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(requested))
	for _, t := range requested {
		want[strings.ToLower(t)] = true
	}
	var out []*schema.Table
	for _, t := range all {
		if want[strings.ToLower(t.Name)] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no matching tables found for inputs: %v", requested)
	}
	return out, nil
}

// merge supersedes tables already mapped from the same source table and
// appends the rest under fresh ids.
func merge(doc *mapfile.Document, e *reconcile.Engine, proposed []*mapping.Table) error {
	bySource := make(map[string]string, len(doc.Tables))
	used := make(map[string]bool, len(doc.Tables))
	for _, t := range doc.Tables {
		bySource[strings.ToLower(t.SrcName)] = t.ID
		used[t.ID] = true
	}

	next := len(doc.Tables) + 1
	for _, t := range proposed {
		if id, ok := bySource[strings.ToLower(t.SrcName)]; ok {
			t.ID = id
			if err := e.Replace(t); err != nil {
				return err
			}
			continue
		}
		for used[fmt.Sprintf("t%d", next)] {
			next++
		}
		t.ID = fmt.Sprintf("t%d", next)
		used[t.ID] = true
		if err := e.Load(t); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	RootCmd.AddCommand(proposeCmd)

	proposeCmd.Flags().StringSliceVarP(&tables, "tables", "t", []string{}, "Specific tables to propose (comma-separated)")
	proposeCmd.Flags().BoolVar(&replace, "replace", false, "Supersede tables already in the mapping document")
}
