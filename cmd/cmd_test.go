package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-mapper/internal/mapfile"
	"schema-mapper/internal/mapping"
	"schema-mapper/internal/reconcile"
	"schema-mapper/internal/schema"
	"schema-mapper/internal/typepolicy"
)

func TestGetActiveDBConfig(t *testing.T) {
	defer viper.Reset()

	viper.Set("databases", []map[string]interface{}{
		{"name": "local", "driver": "mysql", "dsn": "root@/a", "active": false},
		{"name": "stage", "driver": "postgres", "dsn": "postgres://x", "schema": "app", "active": true},
	})
	cfg, err := GetActiveDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "stage", cfg.Name)
	assert.Equal(t, "app", cfg.Schema)

	viper.Set("databases", []map[string]interface{}{{"name": "a"}, {"name": "b"}})
	_, err = GetActiveDBConfig()
	assert.ErrorContains(t, err, "no active database")

	viper.Set("databases", []map[string]interface{}{{"name": "a", "active": true}, {"name": "b", "active": true}})
	_, err = GetActiveDBConfig()
	assert.ErrorContains(t, err, "multiple active")
}

func TestSourceConfig_DSNFlag(t *testing.T) {
	defer func() { dsn, driverName = "", "" }()

	dsn = "postgres://u@localhost/app?sslmode=disable"
	cfg, err := sourceConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)

	dsn, driverName = "sa@localhost", "sqlserver"
	cfg, err = sourceConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", cfg.Driver)
}

func TestFilterTables(t *testing.T) {
	defer viper.Reset()
	all := []*schema.Table{{Name: "Singers"}, {Name: "albums"}}

	out, err := filterTables(all, nil)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = filterTables(all, []string{"singers"})
	require.NoError(t, err)
	assert.Equal(t, "Singers", out[0].Name)

	viper.Set("settings.tables", []string{"albums"})
	out, err = filterTables(all, nil)
	require.NoError(t, err)
	assert.Equal(t, "albums", out[0].Name)

	_, err = filterTables(all, []string{"songs"})
	assert.Error(t, err)
}

func table(id, src string) *mapping.Table {
	return &mapping.Table{
		ID: id, Name: src, SrcName: src, Dialect: typepolicy.GoogleSQL,
		Columns: []mapping.Column{
			{SrcID: "c1", SpID: "c1", SrcOrder: 1, SpOrder: 1, SrcColName: "id", SpColName: "id", SpDataType: "INT64", SpIsPk: true, SpIsNotNull: true},
		},
	}
}

func TestMerge(t *testing.T) {
	doc := &mapfile.Document{Tables: []*mapping.Table{table("t1", "singers"), table("t3", "albums")}}
	e := reconcile.New(typepolicy.Default(), reconcile.Options{}, nil)
	for _, tbl := range doc.Tables {
		require.NoError(t, e.Load(tbl))
	}

	fresh := table("t1", "albums")
	fresh.Columns[0].SpColName = "album_id"
	songs := table("t2", "songs")
	require.NoError(t, merge(doc, e, []*mapping.Table{fresh, songs}))

	got := e.Tables()
	require.Len(t, got, 3)
	assert.Equal(t, "t3", got[1].ID)
	assert.Equal(t, "album_id", got[1].Columns[0].SpColName, "albums superseded in place")
	assert.Equal(t, "songs", got[2].SrcName)
	assert.Equal(t, "t4", got[2].ID, "ids in use are skipped")

	require.NoError(t, e.Commit("t1"))
	assert.ErrorIs(t, merge(doc, e, []*mapping.Table{table("x", "singers")}), mapping.ErrFrozen)
}

func TestColumnAndPendingRefs(t *testing.T) {
	tbl := table("t1", "singers")
	tbl.Indexes = []mapping.Index{{ID: "i1", Name: "idx", Columns: []mapping.IndexColumn{
		{SrcColID: "c9", SrcColName: "legacy_code", SrcOrder: 1},
	}}}

	id, err := columnRef(tbl, "ID")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
	_, err = columnRef(tbl, "nope")
	assert.ErrorIs(t, err, mapping.ErrUnknownColumn)

	src, err := pendingRef(tbl, "idx", "legacy_code")
	require.NoError(t, err)
	assert.Equal(t, "c9", src)
	_, err = pendingRef(tbl, "other", "c9")
	assert.ErrorIs(t, err, mapping.ErrIndexColumnNotFound)
}

func TestFormatRow(t *testing.T) {
	assert.Equal(t, `1, "a", NULL, 0x0aff, true`, formatRow([]interface{}{int64(1), "a", nil, []byte{0x0a, 0xff}, true}))
}
