// Package sample generates preview rows for a table mapping. Values follow
// the target type and never exceed the target length.
package sample

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"schema-mapper/internal/mapping"
)

// Row holds one value per column, in spOrder.
type Row []interface{}

type Generator struct {
	faker *gofakeit.Faker
	// NullRate is the share of nullable columns left empty, 0..1.
	NullRate float64
	seq      map[string]int64
}

var (
	rangeStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
)

// textCap bounds generated text for MAX-length columns.
const textCap = 200

// New returns a generator. The same non-zero seed gives the same rows.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed), seq: make(map[string]int64)}
}

// Rows generates n rows for t.
func (g *Generator) Rows(t *mapping.Table, n int) []Row {
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		row := make(Row, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = g.Value(t.ID, col)
		}
		rows = append(rows, row)
	}
	return rows
}

func truncate(s string, limit int64) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if int64(len(runes)) > limit {
		return string(runes[:limit])
	}
	return s
}

func limitOf(col mapping.Column) int64 {
	if n, ok := col.SpColMaxLength.Value(); ok {
		return n
	}
	return textCap
}

// Value generates one value for col. Primary key integers count up per
// table so preview rows never collide.
func (g *Generator) Value(tableID string, col mapping.Column) interface{} {
	if !col.SpIsNotNull && !col.SpIsPk && g.NullRate > 0 && g.faker.Float64Range(0, 1) < g.NullRate {
		return nil
	}
	name := strings.ToLower(col.SpColName)

	switch strings.ToUpper(col.SpDataType) {
	case "BOOL":
		return g.faker.Bool()
	case "INT64", "INT8":
		if col.SpIsPk {
			key := tableID + "." + col.SpID
			g.seq[key]++
			return g.seq[key]
		}
		return g.integer(name)
	case "FLOAT32", "FLOAT4", "FLOAT64", "FLOAT8":
		return g.faker.Float64Range(0, 10000)
	case "NUMERIC":
		return fmt.Sprintf("%.2f", g.faker.Price(0.99, 9999.99))
	case "DATE":
		return g.faker.DateRange(rangeStart, rangeEnd).Format("2006-01-02")
	case "TIMESTAMP", "TIMESTAMPTZ":
		return g.faker.DateRange(rangeStart, rangeEnd).Format(time.RFC3339)
	case "BYTES", "BYTEA":
		n := limitOf(col)
		if n > 16 {
			n = 16
		}
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(g.faker.Number(0, 255))
		}
		return b
	case "JSON", "JSONB":
		doc, _ := json.Marshal(map[string]interface{}{
			"id":    g.faker.UUID(),
			"label": g.faker.Word(),
		})
		return string(doc)
	case "STRING", "VARCHAR":
		if col.SpIsPk {
			return truncate(g.faker.UUID(), limitOf(col))
		}
		return truncate(g.text(name, limitOf(col)), limitOf(col))
	}
	return nil
}

func (g *Generator) integer(name string) int64 {
	switch {
	case strings.Contains(name, "active") || strings.Contains(name, "enabled") || strings.HasPrefix(name, "is_"):
		return int64(g.faker.Number(0, 1))
	case strings.Contains(name, "year"):
		return int64(g.faker.Number(rangeStart.Year(), rangeEnd.Year()))
	case strings.Contains(name, "age"):
		return int64(g.faker.Number(18, 90))
	}
	return int64(g.faker.Number(1, 50000))
}

// text picks a value from hints in the column name.
func (g *Generator) text(name string, limit int64) string {
	isID := strings.HasSuffix(name, "id")
	switch {
	case strings.Contains(name, "year"):
		return fmt.Sprintf("%d", g.faker.Number(rangeStart.Year(), rangeEnd.Year()))
	case isID:
		return g.faker.UUID()
	case strings.Contains(name, "email"):
		return g.faker.Email()
	case strings.Contains(name, "phone"):
		return g.faker.Phone()
	case strings.Contains(name, "first"):
		return g.faker.FirstName()
	case strings.Contains(name, "last"):
		return g.faker.LastName()
	case strings.Contains(name, "name"):
		return g.faker.Name()
	case strings.Contains(name, "address"), strings.Contains(name, "street"):
		return g.faker.Street()
	case strings.Contains(name, "city"):
		return g.faker.City()
	case strings.Contains(name, "country"):
		return g.faker.Country()
	case strings.Contains(name, "zip"), strings.Contains(name, "postal"):
		return g.faker.Zip()
	case strings.Contains(name, "url"):
		return g.faker.URL()
	case strings.HasPrefix(name, "is_"), strings.Contains(name, "active"):
		if g.faker.Bool() {
			return "Y"
		}
		return "N"
	case strings.Contains(name, "title"), strings.Contains(name, "subject"):
		return g.faker.Sentence(3)
	}
	if limit < 20 {
		return g.faker.Word()
	}
	return g.faker.Sentence(8)
}
