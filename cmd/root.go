package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"schema-mapper/internal/logging"
)

var (
	dsn        string
	driverName string
	cfgFile    string
	mapFile    string
	logLevel   string

	// Log is built in PersistentPreRunE from log.level and log.format.
	Log = zap.NewNop()
)

var RootCmd = &cobra.Command{
	Use:   "schema-mapper",
	Short: "Map a relational schema onto Cloud Spanner",
	Long: `
  ____   ____ _   _ _____ __  __    _      __  __    _    ____  ____  _____ ____
 / ___| / ___| | | | ____|  \/  |  / \    |  \/  |  / \  |  _ \|  _ \| ____|  _ \
 \___ \| |   | |_| |  _| | |\/| | / _ \   | |\/| | / _ \ | |_) | |_) |  _| | |_) |
  ___) | |___|  _  | |___| |  | |/ ___ \  | |  | |/ ___ \|  __/|  __/| |___|  _ <
 |____/ \____|_| |_|_____|_|  |_/_/   \_\ |_|  |_/_/   \_\_|   |_|   |_____|_| \_\

Propose, review and freeze source-to-Spanner table mappings.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(viper.GetString("log.level"), viper.GetString("log.format"))
		if err != nil {
			return err
		}
		Log = log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = Log.Sync()
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./schema-mapper.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "source Database Source Name (DSN)")
	RootCmd.PersistentFlags().StringVar(&driverName, "driver", "", "source driver: mysql, postgres, sqlserver, oracle")
	RootCmd.PersistentFlags().StringVarP(&mapFile, "mapping", "m", "", "mapping document (.yaml or .json)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	viper.BindPFlag("mapping.file", RootCmd.PersistentFlags().Lookup("mapping"))
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault("mapping.file", "mapping.yaml")
	viper.SetDefault("mapping.block_on_pending_index", true)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("state.backend", "sqlite")
	viper.SetDefault("state.dsn", "schema-mapper-state.db")
	viper.SetDefault("state.redis.prefix", "schema-mapper:")
	viper.SetDefault("health.schedule", "@every 30s")
	viper.SetDefault("health.timeout", "5s")
	viper.SetDefault("target.dialect", "google_standard_sql")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("schema-mapper")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SCHEMA_MAPPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
