package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/saaga0h/wellness-engine/internal/wellness"
	"github.com/saaga0h/wellness-engine/pkg/postgres"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS daily_wellness_results (
	user_id               TEXT        NOT NULL,
	result_date           DATE        NOT NULL,
	overall_score         SMALLINT    NOT NULL CHECK (overall_score BETWEEN 0 AND 100),
	focus                 TEXT        NOT NULL,
	summary               JSONB       NOT NULL,
	recommendations       JSONB       NOT NULL,
	metrics               JSONB       NOT NULL,
	recommendation_source TEXT        NOT NULL,
	categories            TEXT[]      NOT NULL DEFAULT '{}',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, result_date)
)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_wellness_results_user_date
	ON daily_wellness_results (user_id, result_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_wellness_results_categories
	ON daily_wellness_results USING GIN (categories)`,
}

const selectColumns = `
	user_id,
	to_char(result_date, 'YYYY-MM-DD'),
	overall_score,
	summary,
	recommendations,
	metrics
`

// PostgresGateway stores results in the daily_wellness_results table
type PostgresGateway struct {
	db     postgres.Client
	logger *slog.Logger
}

// NewPostgresGateway creates a gateway over a connected client
func NewPostgresGateway(db postgres.Client, logger *slog.Logger) *PostgresGateway {
	return &PostgresGateway{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the results table and its indexes if they do not exist
func (g *PostgresGateway) EnsureSchema(ctx context.Context) error {
	err := g.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create results schema: %w", err)
	}

	g.logger.Info("Result schema ready", "table", "daily_wellness_results")
	return nil
}

// Get implements Gateway
func (g *PostgresGateway) Get(ctx context.Context, userID, date string) (*wellness.DailyResult, error) {
	rows, err := g.db.Query(ctx, `SELECT `+selectColumns+`
		FROM daily_wellness_results
		WHERE user_id = $1 AND result_date = $2`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query result: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read result: %w", err)
		}
		return nil, wellness.ErrNotFound
	}

	result, err := scanResult(rows)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert implements Gateway. The whole row is replaced on conflict.
func (g *PostgresGateway) Upsert(ctx context.Context, result wellness.DailyResult) error {
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	_, err = g.db.Exec(ctx, `
		INSERT INTO daily_wellness_results (
			user_id, result_date, overall_score, focus, summary,
			recommendations, metrics, recommendation_source, categories
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, result_date) DO UPDATE SET
			overall_score         = EXCLUDED.overall_score,
			focus                 = EXCLUDED.focus,
			summary               = EXCLUDED.summary,
			recommendations       = EXCLUDED.recommendations,
			metrics               = EXCLUDED.metrics,
			recommendation_source = EXCLUDED.recommendation_source,
			categories            = EXCLUDED.categories,
			updated_at            = NOW()`,
		result.UserID,
		result.Date,
		result.OverallScore,
		result.Summary.Focus,
		summary,
		recommendations,
		metrics,
		result.Metrics.Source,
		pq.StringArray(categories(result.Recommendations)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", wellness.ErrPersistenceWrite, err)
	}

	g.logger.Debug("Stored daily result",
		"user_id", result.UserID,
		"date", result.Date,
		"score", result.OverallScore)

	return nil
}

// List implements Gateway
func (g *PostgresGateway) List(ctx context.Context, userID string, limit int) ([]wellness.DailyResult, error) {
	rows, err := g.db.Query(ctx, `SELECT `+selectColumns+`
		FROM daily_wellness_results
		WHERE user_id = $1
		ORDER BY result_date DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var results []wellness.DailyResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return results, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scanner) (*wellness.DailyResult, error) {
	var (
		result                            wellness.DailyResult
		summary, recommendations, metrics []byte
	)

	if err := row.Scan(&result.UserID, &result.Date, &result.OverallScore, &summary, &recommendations, &metrics); err != nil {
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	if err := errors.Join(
		json.Unmarshal(summary, &result.Summary),
		json.Unmarshal(recommendations, &result.Recommendations),
		json.Unmarshal(metrics, &result.Metrics),
	); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}

	return &result, nil
}

func categories(recs []wellness.Recommendation) []string {
	seen := make(map[string]bool, len(recs))
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}
