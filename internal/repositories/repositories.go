package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/setlistify/internal/shared"
)

// sequenced lists the tables that have a {table}_sequence counter row.
var sequenced = map[string]bool{"builds": true}

// queryer is satisfied by both [sql.DB] and [sql.Tx].
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence increments and returns the counter for table.
//
// Pass the [sql.Tx] of the insert that uses the number so a rolled back insert does not consume it.
func NextSequence(q queryer, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("%w: no sequence for table %q", shared.ErrInvalidInput, table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := q.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
