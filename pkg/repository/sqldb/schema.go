package sqldb

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

type column struct {
	name       string
	definition string
}

type table struct {
	name    string
	columns []column
	extra   []string
}

// tables describes the current schema. Columns missing from an existing table are
// added by Migrate; nothing is ever dropped.
func (d *DB) tables() []table {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	floatType := "REAL"
	if d.dialect == DialectPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
		floatType = "DOUBLE PRECISION"
	}

	return []table{
		{
			name: "notes",
			columns: []column{
				{"id", pk},
				{"audio_reference", "TEXT"},
				{"transcript_text", "TEXT NOT NULL DEFAULT ''"},
				{"transcript_metadata_json", "TEXT NOT NULL DEFAULT '{}'"},
				{"reflection_json", "TEXT NOT NULL DEFAULT '{}'"},
				{"reflection_internal_json", "TEXT NOT NULL DEFAULT '{}'"},
				{"embedding_json", "TEXT NOT NULL DEFAULT '[]'"},
				{"created_at", "TEXT NOT NULL DEFAULT ''"},
				{"updated_at", "TEXT NOT NULL DEFAULT ''"},
			},
		},
		{
			name: "related_note_links",
			columns: []column{
				{"note_id", "BIGINT NOT NULL REFERENCES notes(id)"},
				{"related_note_id", "BIGINT NOT NULL REFERENCES notes(id)"},
				{"similarity", floatType + " NOT NULL DEFAULT 0"},
			},
			extra: []string{"PRIMARY KEY (note_id, related_note_id)"},
		},
		{
			name: "reflection_events",
			columns: []column{
				{"id", pk},
				{"transcript_text", "TEXT NOT NULL DEFAULT ''"},
				{"reflection_json", "TEXT NOT NULL DEFAULT '{}'"},
				{"reflection_internal_json", "TEXT NOT NULL DEFAULT '{}'"},
				{"created_at", "TEXT NOT NULL DEFAULT ''"},
			},
		},
		{
			name: "cost_ledger",
			columns: []column{
				{"id", pk},
				{"app", "TEXT NOT NULL DEFAULT ''"},
				{"request_id", "TEXT NOT NULL DEFAULT ''"},
				{"provider", "TEXT NOT NULL DEFAULT ''"},
				{"model", "TEXT NOT NULL DEFAULT ''"},
				{"prompt_tokens", "INTEGER NOT NULL DEFAULT 0"},
				{"completion_tokens", "INTEGER NOT NULL DEFAULT 0"},
				{"usd", floatType + " NOT NULL DEFAULT 0"},
				{"created_at", "TEXT NOT NULL DEFAULT ''"},
			},
		},
	}
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_cost_ledger_request_id ON cost_ledger(request_id)",
	"CREATE INDEX IF NOT EXISTS idx_related_note_links_note_id ON related_note_links(note_id)",
}

// MigrationStep is one schema change applied or planned by Migrate
type MigrationStep struct {
	Table       string
	Description string
	Statement   string
}

// Plan returns the schema changes Migrate would apply
func (d *DB) Plan(ctx context.Context) ([]MigrationStep, error) {
	var steps []MigrationStep

	for _, t := range d.tables() {
		existing, err := d.existingColumns(ctx, t.name)
		if err != nil {
			return nil, err
		}

		if len(existing) == 0 {
			steps = append(steps, MigrationStep{
				Table:       t.name,
				Description: "create table",
				Statement:   createTableStatement(t),
			})
			continue
		}

		for _, c := range t.columns {
			if existing[c.name] {
				continue
			}
			steps = append(steps, MigrationStep{
				Table:       t.name,
				Description: fmt.Sprintf("add column %s", c.name),
				Statement:   fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", t.name, c.name, c.definition),
			})
		}
	}

	for _, idx := range indexes {
		steps = append(steps, MigrationStep{Description: "ensure index", Statement: idx})
	}

	return steps, nil
}

// Migrate creates missing tables and adds missing columns
func (d *DB) Migrate(ctx context.Context) ([]MigrationStep, error) {
	steps, err := d.Plan(ctx)
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		if _, err := d.db.ExecContext(ctx, step.Statement); err != nil {
			return nil, goerr.Wrap(err, "failed to apply migration",
				goerr.V("table", step.Table),
				goerr.V("statement", step.Statement))
		}
	}

	return steps, nil
}

func createTableStatement(t table) string {
	stmt := "CREATE TABLE IF NOT EXISTS " + t.name + " ("
	for i, c := range t.columns {
		if i > 0 {
			stmt += ", "
		}
		stmt += c.name + " " + c.definition
	}
	for _, e := range t.extra {
		stmt += ", " + e
	}
	return stmt + ")"
}

func (d *DB) existingColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	var names []string

	switch d.dialect {
	case DialectPostgres:
		query := "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1"
		if err := d.db.SelectContext(ctx, &names, query, tableName); err != nil {
			return nil, goerr.Wrap(err, "failed to inspect table", goerr.V("table", tableName))
		}
	default:
		query := "SELECT name FROM pragma_table_info(?)"
		if err := d.db.SelectContext(ctx, &names, query, tableName); err != nil {
			return nil, goerr.Wrap(err, "failed to inspect table", goerr.V("table", tableName))
		}
	}

	result := make(map[string]bool, len(names))
	for _, n := range names {
		result[n] = true
	}
	return result, nil
}
