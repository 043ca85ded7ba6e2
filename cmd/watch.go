package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"schema-mapper/internal/configchan"
	"schema-mapper/internal/health"
	"schema-mapper/internal/migstate"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow target config changes and dependency health until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		initial, err := targetConfig()
		if err != nil {
			return err
		}
		targets := configchan.New(initial)
		defer targets.Close()

		viper.OnConfigChange(func(in fsnotify.Event) {
			t, err := targetConfig()
			if err != nil {
				Log.Warn("ignoring config change", zap.String("file", in.Name), zap.Error(err))
				return
			}
			targets.Publish(t)
		})
		if viper.ConfigFileUsed() != "" {
			viper.WatchConfig()
		}

		poller, err := health.NewPoller(viper.GetString("health.schedule"), viper.GetDuration("health.timeout"), Log)
		if err != nil {
			return err
		}

		store, err := openFlagStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		guard := migstate.NewGuard(store, Log)
		poller.Register("state", func(ctx context.Context) error {
			_, err := guard.State(ctx)
			return err
		})

		if src, err := openSource(ctx); err != nil {
			Log.Warn("source database not checked", zap.Error(err))
		} else {
			defer src.db.Close()
			poller.Register("source:"+src.config.Name, health.Ping(src.db))
		}

		if state, err := guard.State(ctx); err == nil && state == migstate.StateInProgress {
			owner, _ := guard.Owner(ctx)
			fmt.Printf("⚠ A migration is already in progress (%s). Mappings are read-only until it completes or is cancelled.\n", owner)
		}

		reports := poller.Reports().Subscribe(ctx)
		if err := poller.Start(ctx); err != nil {
			return err
		}
		defer poller.Stop()

		configs := targets.Subscribe(ctx)
		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nStopped.")
				return nil
			case t, ok := <-configs:
				if !ok {
					return nil
				}
				fmt.Printf("🎯 Target: %s\n", t)
			case r, ok := <-reports:
				if !ok {
					return nil
				}
				if r.CheckedAt.IsZero() {
					continue
				}
				printReport(r)
			}
		}
	},
}

func printReport(r health.Report) {
	icon := "✓"
	if !r.Healthy() {
		icon = "!"
	}
	fmt.Printf("[%s] health at %s\n", icon, r.CheckedAt.Format("15:04:05"))
	for _, s := range r.Statuses {
		if s.Healthy {
			fmt.Printf("    %-24s ok (%s)\n", s.Name, s.Latency)
			continue
		}
		fmt.Printf("    %-24s %s\n", s.Name, s.Error)
	}
}

func init() {
	RootCmd.AddCommand(watchCmd)
}
