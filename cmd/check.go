package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [table]",
	Short: "Validate table mappings before migration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, e, err := loadWorkspace()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			t, err := tableRef(doc, args[0])
			if err != nil {
				return err
			}
			if err := e.Check(t.ID); err != nil {
				printProblems(err)
				return fmt.Errorf("%s is not ready", t.Name)
			}
			fmt.Printf("✓ %s is ready\n", t.Name)
			return nil
		}

		if err := e.CheckAll(); err != nil {
			printProblems(err)
			return fmt.Errorf("mapping is not ready")
		}
		fmt.Printf("✓ %d tables ready\n", len(doc.Tables))
		return nil
	},
}

// printProblems lists each joined error on its own line.
func printProblems(err error) {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		fmt.Printf("  ! %v\n", err)
		return
	}
	for _, e := range joined.Unwrap() {
		printProblems(e)
	}
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
