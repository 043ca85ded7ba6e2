package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schema-mapper/internal/mapfile"
	"schema-mapper/internal/migstate"
	"schema-mapper/internal/reconcile"
)

var migrationCmd = &cobra.Command{
	Use:   "migration",
	Short: "Start, finish or inspect the migration of the mapped tables",
}

// withGuard opens the flag store for the length of fn.
func withGuard(ctx context.Context, fn func(g *migstate.Guard) error) error {
	store, err := openFlagStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(migstate.NewGuard(store, Log))
}

var migrationStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Check every table, take the migration flag and freeze the mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		doc, e, err := loadWorkspace()
		if err != nil {
			return err
		}
		if err := e.CheckAll(); err != nil {
			printProblems(err)
			return fmt.Errorf("mapping is not ready, run check")
		}

		return withGuard(ctx, func(g *migstate.Guard) error {
			if err := g.RequestStart(ctx); err != nil {
				if errors.Is(err, migstate.ErrAlreadyInProgress) {
					if owner, _ := g.Owner(ctx); owner != "" {
						return fmt.Errorf("%w (started by %s)", err, owner)
					}
				}
				return err
			}
			if err := freeze(doc, e); err != nil {
				if cerr := g.Cancel(ctx); cerr != nil {
					Log.Error("release migration flag", zap.Error(cerr))
				}
				return err
			}
			fmt.Printf("🚀 Migration started: %d tables frozen\n", len(doc.Tables))
			return nil
		})
	},
}

func freeze(doc *mapfile.Document, e *reconcile.Engine) error {
	if err := e.FreezeAll(); err != nil {
		return err
	}
	return saveWorkspace(doc, e)
}

func thaw(doc *mapfile.Document, e *reconcile.Engine) error {
	e.ThawAll()
	return saveWorkspace(doc, e)
}

var migrationCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark the running migration as done",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withGuard(ctx, func(g *migstate.Guard) error {
			if err := g.Complete(ctx); err != nil {
				return err
			}
			fmt.Println("✓ Migration complete")
			return nil
		})
	},
}

var migrationCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Abandon the running migration and unfreeze the mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		doc, e, err := loadWorkspace()
		if err != nil {
			return err
		}
		return withGuard(ctx, func(g *migstate.Guard) error {
			if err := g.Cancel(ctx); err != nil {
				return err
			}
			if err := thaw(doc, e); err != nil {
				return err
			}
			fmt.Println("✓ Migration cancelled, tables editable again")
			return nil
		})
	},
}

var migrationResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a migration flag left behind by a crashed session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withGuard(ctx, func(g *migstate.Guard) error {
			if err := g.Reset(ctx); err != nil {
				return err
			}
			doc, e, err := loadWorkspace()
			if err == nil {
				err = thaw(doc, e)
			}
			if err != nil {
				Log.Warn("flag cleared but mapping not unfrozen", zap.Error(err))
			}
			fmt.Println("✓ Migration flag reset")
			return nil
		})
	},
}

var migrationStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a migration is in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withGuard(ctx, func(g *migstate.Guard) error {
			state, err := g.State(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Migration: %s\n", state)
			if state == migstate.StateInProgress {
				if owner, err := g.Owner(ctx); err == nil && owner != "" {
					fmt.Printf("Started by: %s\n", owner)
				}
			}
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(migrationCmd)
	migrationCmd.AddCommand(migrationStartCmd, migrationCompleteCmd, migrationCancelCmd, migrationResetCmd, migrationStatusCmd)
}
