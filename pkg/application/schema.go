package application

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

type schemaEntry struct {
	name string
	ddl  string
}

// SchemaManager collects the embedded DDL of registered modules and applies
// it in registration order. The DDL must be idempotent (CREATE ... IF NOT
// EXISTS); there is no versioned migration engine.
type SchemaManager struct {
	pool    *pgxpool.Pool
	entries []schemaEntry
}

func NewSchemaManager(pool *pgxpool.Pool) *SchemaManager {
	return &SchemaManager{pool: pool}
}

func (m *SchemaManager) Register(name, ddl string) {
	m.entries = append(m.entries, schemaEntry{name: name, ddl: ddl})
}

func (m *SchemaManager) Registered() []string {
	names := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		names = append(names, e.name)
	}
	return names
}

// Apply executes each registered DDL blob. Blobs may hold multiple
// statements; they run without bound parameters so pgx sends them over the
// simple protocol.
func (m *SchemaManager) Apply(ctx context.Context) error {
	if m.pool == nil {
		return errors.New("schema: no database pool configured")
	}
	for _, e := range m.entries {
		if _, err := m.pool.Exec(ctx, e.ddl); err != nil {
			return errors.Wrap(err, "apply schema "+e.name)
		}
	}
	return nil
}
