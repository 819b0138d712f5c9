package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/sqldb"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
)

const defaultInsertBatchSize = 50

var locationColumns = []interface{}{
	"id", "slug", "name", "address", "street", "city", "postal_code", "country",
	"latitude", "longitude", "phone", "website", "rating", "reviews_count",
	"reviews_link", "business_status", "working_hours", "photo", "photos_count",
	"about", "created_at", "updated_at",
}

var filterableFields = map[string]bool{
	repositories.FieldName:       true,
	repositories.FieldAddress:    true,
	repositories.FieldCity:       true,
	repositories.FieldPostalCode: true,
}

var orderableFields = map[string]bool{
	repositories.FieldID:     true,
	repositories.FieldName:   true,
	repositories.FieldRating: true,
}

// likeEscaper makes LIKE metacharacters in user text match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// LocationAdapter implements the LocationRepository interface
type LocationAdapter struct {
	client *sqldb.Client
	db     *goqu.Database
}

var _ repositories.LocationRepository = (*LocationAdapter)(nil)

// NewLocationAdapter creates a new location adapter
func NewLocationAdapter(client *sqldb.Client) *LocationAdapter {
	return &LocationAdapter{
		client: client,
		db:     client.Goqu(),
	}
}

// Find returns the filtered page and the exact count of all matching rows
func (a *LocationAdapter) Find(ctx context.Context, filter repositories.LocationFilter) ([]*entities.Location, int, error) {
	total, err := a.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	ds, err := a.filtered(filter)
	if err != nil {
		return nil, 0, err
	}
	ds = ds.Select(locationColumns...)

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = repositories.FieldID
	}
	if !orderableFields[orderBy] {
		return nil, 0, apperrors.NewValidationError(fmt.Sprintf("cannot order locations by %q", orderBy))
	}
	if orderBy == repositories.FieldRating {
		// absent ratings last in both directions
		ds = ds.Order(goqu.L("? IS NULL", goqu.I(orderBy)).Asc())
	}
	if filter.Descending {
		ds = ds.OrderAppend(goqu.I(orderBy).Desc())
	} else {
		ds = ds.OrderAppend(goqu.I(orderBy).Asc())
	}
	if orderBy != repositories.FieldID {
		ds = ds.OrderAppend(goqu.I(repositories.FieldID).Asc())
	}

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build location query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewExternalError("failed to query locations", err)
	}
	defer rows.Close()

	locations := []*entities.Location{}
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan location", err)
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewExternalError("error iterating locations", err)
	}

	return locations, total, nil
}

// Count returns the number of rows matching the filter
func (a *LocationAdapter) Count(ctx context.Context, filter repositories.LocationFilter) (int, error) {
	ds, err := a.filtered(filter)
	if err != nil {
		return 0, err
	}

	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewExternalError("failed to count locations", err)
	}
	return count, nil
}

// GetBySlug retrieves a location by slug
func (a *LocationAdapter) GetBySlug(ctx context.Context, slug string) (*entities.Location, error) {
	query, args, err := a.db.Select(locationColumns...).
		From(locationsTable).
		Where(goqu.Ex{"slug": slug}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build location query", err)
	}

	location, err := scanLocation(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("location with slug %s not found", slug))
	}
	if err != nil {
		return nil, apperrors.NewExternalError("failed to get location", err)
	}
	return location, nil
}

// ReplaceAll deletes every location and inserts the given ones in batches inside one transaction
func (a *LocationAdapter) ReplaceAll(ctx context.Context, locations []*entities.Location, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultInsertBatchSize
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewExternalError("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteSQL, deleteArgs, err := a.db.Delete(locationsTable).Prepared(true).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL, deleteArgs...); err != nil {
		return 0, apperrors.NewExternalError("failed to clear locations", err)
	}

	inserted := 0
	for start := 0; start < len(locations); start += batchSize {
		end := start + batchSize
		if end > len(locations) {
			end = len(locations)
		}

		rows := make([]interface{}, 0, end-start)
		for _, location := range locations[start:end] {
			rows = append(rows, locationRecord(location))
		}

		insertSQL, insertArgs, err := a.db.Insert(locationsTable).Rows(rows...).Prepared(true).ToSQL()
		if err != nil {
			return 0, apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
			return 0, apperrors.NewExternalError(fmt.Sprintf("failed to insert batch starting at row %d", start+1), err)
		}
		inserted += end - start
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewExternalError("failed to commit location import", err)
	}
	return inserted, nil
}

func (a *LocationAdapter) filtered(filter repositories.LocationFilter) (*goqu.SelectDataset, error) {
	ds := a.db.From(locationsTable).Prepared(true)

	if filter.MinRating != nil {
		ds = ds.Where(goqu.C(repositories.FieldRating).Gte(*filter.MinRating))
	}

	if len(filter.Text) > 0 {
		conditions := make([]exp.Expression, 0, len(filter.Text))
		for _, cond := range filter.Text {
			if !filterableFields[cond.Field] {
				return nil, apperrors.NewValidationError(fmt.Sprintf("cannot filter locations by %q", cond.Field))
			}
			conditions = append(conditions, a.like(cond.Field, likePattern(cond)))
		}
		ds = ds.Where(goqu.Or(conditions...))
	}

	return ds, nil
}

// like is a case-insensitive match with backslash as the escape character.
// sqlite has no ILIKE, but its LIKE ignores ASCII case.
func (a *LocationAdapter) like(field, pattern string) exp.Expression {
	op := "ILIKE"
	if a.client.Dialect() == "sqlite3" {
		op = "LIKE"
	}
	return goqu.L(fmt.Sprintf(`? %s ? ESCAPE '\'`, op), goqu.C(field), pattern)
}

func likePattern(cond repositories.TextCondition) string {
	term := likeEscaper.Replace(strings.TrimSpace(cond.Value))
	if cond.Match == repositories.MatchPrefix {
		return term + "%"
	}
	return "%" + term + "%"
}

func locationRecord(l *entities.Location) goqu.Record {
	var about interface{}
	if len(l.About) > 0 {
		about = string(l.About)
	}
	return goqu.Record{
		"id":              l.ID,
		"slug":            l.Slug,
		"name":            l.Name,
		"address":         l.Address,
		"street":          l.Street,
		"city":            l.City,
		"postal_code":     l.PostalCode,
		"country":         l.Country,
		"latitude":        l.Latitude,
		"longitude":       l.Longitude,
		"phone":           nullable(l.Phone),
		"website":         nullable(l.Website),
		"rating":          nullable(l.Rating),
		"reviews_count":   l.ReviewsCount,
		"reviews_link":    nullable(l.ReviewsLink),
		"business_status": l.BusinessStatus,
		"working_hours":   l.WorkingHours,
		"photo":           nullable(l.Photo),
		"photos_count":    l.PhotosCount,
		"about":           about,
		"created_at":      l.CreatedAt.UTC(),
		"updated_at":      l.UpdatedAt.UTC(),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(row rowScanner) (*entities.Location, error) {
	var (
		l           entities.Location
		phone       sql.NullString
		website     sql.NullString
		rating      sql.NullFloat64
		reviewsLink sql.NullString
		photo       sql.NullString
		about       sql.NullString
	)

	err := row.Scan(
		&l.ID, &l.Slug, &l.Name, &l.Address, &l.Street, &l.City, &l.PostalCode, &l.Country,
		&l.Latitude, &l.Longitude, &phone, &website, &rating, &l.ReviewsCount,
		&reviewsLink, &l.BusinessStatus, &l.WorkingHours, &photo, &l.PhotosCount,
		&about, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Phone = nullString(phone)
	l.Website = nullString(website)
	l.ReviewsLink = nullString(reviewsLink)
	l.Photo = nullString(photo)
	if rating.Valid {
		r := rating.Float64
		l.Rating = &r
	}
	if about.Valid && about.String != "" {
		l.About = json.RawMessage(about.String)
	}

	return &l, nil
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
