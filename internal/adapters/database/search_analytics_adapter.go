package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/sqldb"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
)

const defaultZeroResultLimit = 100

// SearchAnalyticsAdapter stores search events in the search_events table
type SearchAnalyticsAdapter struct {
	client *sqldb.Client
	db     *goqu.Database
}

var _ repositories.SearchAnalyticsRepository = (*SearchAnalyticsAdapter)(nil)

// NewSearchAnalyticsAdapter creates a new search analytics adapter
func NewSearchAnalyticsAdapter(client *sqldb.Client) *SearchAnalyticsAdapter {
	return &SearchAnalyticsAdapter{client: client, db: client.Goqu()}
}

// LogEvent inserts a search event, assigning an id and timestamp when missing
func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query, args, err := a.db.Insert(searchEventsTable).Rows(goqu.Record{
		"id":                  event.ID,
		"query":               event.Query,
		"strategy":            event.Strategy,
		"result_count":        event.ResultCount,
		"total_count":         event.TotalCount,
		"latency_ms":          event.LatencyMs,
		"reference_latitude":  nullable(event.ReferenceLatitude),
		"reference_longitude": nullable(event.ReferenceLongitude),
		"created_at":          event.CreatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build search event insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// GetZeroResultQueries lists the most recent searches that returned nothing
func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = defaultZeroResultLimit
	}

	query, args, err := a.db.Select(
		"id", "query", "strategy", "result_count", "total_count", "latency_ms",
		"reference_latitude", "reference_longitude", "created_at",
	).
		From(searchEventsTable).
		Where(goqu.Ex{"result_count": 0}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build zero result query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	events := []*entities.SearchEvent{}
	for rows.Next() {
		var (
			e        entities.SearchEvent
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.Query, &e.Strategy, &e.ResultCount, &e.TotalCount, &e.LatencyMs, &lat, &lon, &e.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		if lat.Valid && lon.Valid {
			e.ReferenceLatitude = &lat.Float64
			e.ReferenceLongitude = &lon.Float64
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("error iterating search events", err)
	}

	return events, nil
}
