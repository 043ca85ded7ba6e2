package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"schema-mapper/internal/configchan"
	"schema-mapper/internal/dialect"
	"schema-mapper/internal/mapfile"
	"schema-mapper/internal/mapping"
	"schema-mapper/internal/migstate"
	"schema-mapper/internal/reconcile"
	"schema-mapper/internal/typepolicy"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// sourceConfig prefers --dsn over the config file.
func sourceConfig() (*DBConfig, error) {
	if dsn != "" {
		d := driverName
		if d == "" {
			if strings.Contains(dsn, "postgres") || strings.Contains(dsn, "sslmode") {
				d = "postgres"
			} else {
				d = "mysql"
			}
		}
		return &DBConfig{Name: "CLI", Driver: d, DSN: dsn, Active: true}, nil
	}
	return GetActiveDBConfig()
}

type source struct {
	config  *DBConfig
	db      *sql.DB
	dialect dialect.Dialect
	schema  string
}

// openSource connects to the active source database and resolves the
// schema to introspect.
func openSource(ctx context.Context) (*source, error) {
	config, err := sourceConfig()
	if err != nil {
		return nil, err
	}
	d, err := dialect.GetDialect(config.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	schemaName := d.SchemaName(config.Schema)
	if schemaName == "" && d.Name() == "mysql" {
		if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&schemaName); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to get database name: %w", err)
		}
		if schemaName == "" {
			db.Close()
			return nil, fmt.Errorf("no database selected in DSN")
		}
	}
	return &source{config: config, db: db, dialect: d, schema: schemaName}, nil
}

func targetConfig() (configchan.TargetConfig, error) {
	var t configchan.TargetConfig
	if err := viper.UnmarshalKey("target", &t); err != nil {
		return t, fmt.Errorf("failed to parse target config: %w", err)
	}
	return t, nil
}

func mappingPath() string {
	return viper.GetString("mapping.file")
}

// loadWorkspace reads the mapping document and loads every table into a
// fresh engine.
func loadWorkspace() (*mapfile.Document, *reconcile.Engine, error) {
	doc, err := mapfile.Load(mappingPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("no mapping document at %s (run propose first)", mappingPath())
	}
	if err != nil {
		return nil, nil, err
	}
	e := newEngine()
	for _, t := range doc.Tables {
		if err := e.Load(t); err != nil {
			return nil, nil, err
		}
	}
	return doc, e, nil
}

func newEngine() *reconcile.Engine {
	return reconcile.New(typepolicy.Default(), reconcile.Options{
		BlockOnPendingIndex: viper.GetBool("mapping.block_on_pending_index"),
	}, Log)
}

func saveWorkspace(doc *mapfile.Document, e *reconcile.Engine) error {
	doc.Tables = e.Tables()
	return mapfile.Save(mappingPath(), doc)
}

// tableRef resolves a table id or target name against the document.
func tableRef(doc *mapfile.Document, ref string) (*mapping.Table, error) {
	t, ok := doc.Table(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", reconcile.ErrTableNotFound, ref)
	}
	return t, nil
}

type flagStore interface {
	migstate.FlagStore
	Close() error
}

// openFlagStore builds the store behind the migration flag from
// state.backend: sqlite, postgres, mysql or redis.
func openFlagStore(ctx context.Context) (flagStore, error) {
	backend := viper.GetString("state.backend")
	if backend == "redis" {
		store, err := migstate.NewRedisStore(ctx, migstate.RedisOptions{
			Addr:     viper.GetString("state.redis.addr"),
			Password: viper.GetString("state.redis.password"),
			DB:       viper.GetInt("state.redis.db"),
			Prefix:   viper.GetString("state.redis.prefix"),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := migstate.OpenGormStore(backend, viper.GetString("state.dsn"))
	if err != nil {
		return nil, err
	}
	return store, nil
}
