package checks

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jonwraymond/depprobe/health"
)

// Querier runs a single-row query. *pgxpool.Pool and *database.Conn
// satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Database verifies a round trip to PostgreSQL with SELECT 1.
type Database struct {
	db Querier
}

// NewDatabase creates the database check.
func NewDatabase(db Querier) *Database {
	return &Database{db: db}
}

// Name returns health.CheckDatabase.
func (d *Database) Name() health.CheckName { return health.CheckDatabase }

// Check runs SELECT 1 and requires the answer 1.
func (d *Database) Check(ctx context.Context) health.CheckResult {
	var one int
	if err := d.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return health.Fail(health.CheckDatabase, err)
	}
	if one != 1 {
		return health.Fail(health.CheckDatabase,
			health.Verification("unexpected result from SELECT 1: %d", one))
	}
	return health.Pass(health.CheckDatabase)
}

var _ health.Checker = (*Database)(nil)
