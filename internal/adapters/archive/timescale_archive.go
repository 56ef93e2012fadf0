package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

// TimescaleArchive reads archived waveform samples from a TimescaleDB
// hypertable with columns (series_id, ts, value jsonb, position, severity, message).
type TimescaleArchive struct {
	db    *sql.DB
	query string
}

func NewTimescaleArchive(db *sql.DB, table string) *TimescaleArchive {
	return &TimescaleArchive{
		db: db,
		query: "SELECT ts, value, position, severity, message FROM " + pq.QuoteIdentifier(table) +
			" WHERE series_id = $1 AND ts >= $2 AND ts <= $3 ORDER BY ts ASC",
	}
}

func (t *TimescaleArchive) Name() string { return "timescaledb" }

func (t *TimescaleArchive) Load(ctx context.Context, seriesID string, start, end time.Time) ([]*domain.Sample, error) {
	rows, err := t.db.QueryContext(ctx, t.query, seriesID, start, end)
	if err != nil {
		return nil, fmt.Errorf("archive query %s: %w", seriesID, err)
	}
	defer rows.Close()

	var out []*domain.Sample
	for rows.Next() {
		var (
			s        = &domain.Sample{SeriesID: seriesID}
			raw      []byte
			severity sql.NullString
			message  sql.NullString
		)
		if err := rows.Scan(&s.Timestamp, &raw, &s.Position, &severity, &message); err != nil {
			return nil, fmt.Errorf("archive scan %s: %w", seriesID, err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &s.Value); err != nil {
				return nil, fmt.Errorf("archive value %s at %s: %w", seriesID, s.Timestamp, err)
			}
		}
		s.Status = domain.Status{Severity: severity.String, Message: message.String}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ ports.Archive = (*TimescaleArchive)(nil)
