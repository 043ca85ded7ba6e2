package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"schema-mapper/internal/mapfile"
	"schema-mapper/internal/mapping"
	"schema-mapper/internal/sample"
)

var (
	sampleCount int
	sampleSeed  int64
)

var sampleCmd = &cobra.Command{
	Use:   "sample [table]",
	Short: "Preview generated rows that fit the target columns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := mapfile.Load(mappingPath())
		if err != nil {
			return err
		}
		targets := doc.Tables
		if len(args) == 1 {
			t, err := tableRef(doc, args[0])
			if err != nil {
				return err
			}
			targets = []*mapping.Table{t}
		}

		count := viper.GetInt("settings.sample_count")
		if sampleCount > 0 {
			count = sampleCount
		}
		g := sample.New(sampleSeed)
		g.NullRate = viper.GetFloat64("settings.null_rate")

		for _, t := range targets {
			names := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				names[i] = c.SpColName
			}
			fmt.Printf("\n%s (%s)\n", t.Name, strings.Join(names, ", "))
			for i, row := range g.Rows(t, count) {
				fmt.Printf("  [%02d] %s\n", i+1, formatRow(row))
			}
		}
		return nil
	},
}

func formatRow(row sample.Row) string {
	parts := make([]string, len(row))
	for i, v := range row {
		switch val := v.(type) {
		case nil:
			parts[i] = "NULL"
		case string:
			parts[i] = fmt.Sprintf("%q", val)
		case []byte:
			parts[i] = fmt.Sprintf("0x%x", val)
		default:
			parts[i] = fmt.Sprint(val)
		}
	}
	return strings.Join(parts, ", ")
}

func init() {
	RootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().IntVar(&sampleCount, "count", 0, "Rows per table (overrides config)")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "Random seed, 0 picks one")
	viper.SetDefault("settings.sample_count", 5)
}
