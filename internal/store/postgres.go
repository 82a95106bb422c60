package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voyagen/m3uvault/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

const sourceColumns = `id, name, COALESCE(url, ''), source_type, header_raw, header_attrs, entry_count, last_updated, created_at`

func scanSource(row pgx.Row) (*models.Source, error) {
	var s models.Source
	err := row.Scan(&s.ID, &s.Name, &s.URL, &s.SourceType, &s.HeaderRaw, &s.HeaderAttrs,
		&s.EntryCount, &s.LastUpdated, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateOrGetSource creates a source by name if not exists, returns id.
func (p *Postgres) CreateOrGetSource(ctx context.Context, name, url string, sourceType int16) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO sources (name, url, source_type)
		 VALUES ($1, NULLIF($2, ''), $3)
		 ON CONFLICT (name) DO UPDATE SET url = EXCLUDED.url, source_type = EXCLUDED.source_type
		 RETURNING id`,
		name, url, sourceType,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateOrGetSource: %w", err)
	}
	return id, nil
}

// GetSource returns a single source by id.
func (p *Postgres) GetSource(ctx context.Context, sourceID int64) (*models.Source, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = $1`, sourceID)
	s, err := scanSource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSource: %w", err)
	}
	return s, nil
}

// ListSources returns all sources, newest first.
func (p *Postgres) ListSources(ctx context.Context) ([]models.Source, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListSources: %w", err)
	}
	defer rows.Close()
	var out []models.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("ListSources scan: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// DeleteSource deletes a source; entries go with it via ON DELETE CASCADE.
func (p *Postgres) DeleteSource(ctx context.Context, sourceID int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, sourceID)
	if err != nil {
		return fmt.Errorf("DeleteSource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var entryColumns = []string{
	"source_id", "position", "line", "name",
	"tvg_id", "tvg_name", "tvg_logo", "tvg_url", "tvg_shift",
	"group_title", "http_referrer", "http_user_agent",
	"catchup_type", "catchup_days", "catchup_source", "timeshift",
	"url", "raw",
}

// ReplaceEntries stores the header and swaps the source's entries in one transaction.
func (p *Postgres) ReplaceEntries(ctx context.Context, sourceID int64, pl *models.Playlist) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE sources SET header_raw = $2, header_attrs = $3, entry_count = $4, last_updated = NOW()
		 WHERE id = $1`,
		sourceID, pl.Header.Raw, headerAttrs(pl.Header), len(pl.Items),
	)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM entries WHERE source_id = $1`, sourceID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"entries"}, entryColumns,
		pgx.CopyFromSlice(len(pl.Items), func(i int) ([]any, error) {
			e := &pl.Items[i]
			return []any{
				sourceID, i, e.Line, e.Name,
				e.TVG.ID, e.TVG.Name, e.TVG.Logo, e.TVG.URL, e.TVG.Shift,
				e.Group.Title, e.HTTP.Referrer, e.HTTP.UserAgent,
				e.Catchup.Type, e.Catchup.Days, e.Catchup.Source, e.Timeshift,
				nullIfEmpty(e.URL), e.Raw,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy entries: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListEntries returns entries matching the filter in playlist order.
func (p *Postgres) ListEntries(ctx context.Context, filter EntryFilter) ([]models.StoredEntry, int, error) {
	query, args := buildEntryQuery(filter.Normalize())
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEntries: %w", err)
	}
	defer rows.Close()

	var (
		out   []models.StoredEntry
		total int
	)
	for rows.Next() {
		var e models.StoredEntry
		err := rows.Scan(&e.ID, &e.SourceID, &e.Position, &e.Line, &e.Name,
			&e.TVG.ID, &e.TVG.Name, &e.TVG.Logo, &e.TVG.URL, &e.TVG.Shift,
			&e.Group.Title, &e.HTTP.Referrer, &e.HTTP.UserAgent,
			&e.Catchup.Type, &e.Catchup.Days, &e.Catchup.Source, &e.Timeshift,
			&e.URL, &e.Raw, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("ListEntries scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListEntries rows: %w", err)
	}
	if len(out) == 0 && filter.Offset > 0 {
		// Past the last row the window count has nothing to ride on.
		query, args := buildEntryCountQuery(filter)
		if err := p.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("ListEntries count: %w", err)
		}
	}
	return out, total, nil
}

// entryWhere renders the WHERE clause shared by the entry list and count queries.
func entryWhere(f EntryFilter) (string, []any) {
	where := []string{"source_id = $1"}
	args := []any{f.SourceID}
	if f.Group != nil {
		args = append(args, *f.Group)
		where = append(where, fmt.Sprintf("group_title = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.CompleteOnly {
		where = append(where, "url IS NOT NULL")
	}
	return strings.Join(where, " AND "), args
}

// buildEntryQuery renders the ListEntries SQL for a normalized filter.
func buildEntryQuery(f EntryFilter) (string, []any) {
	where, args := entryWhere(f)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(
		`SELECT id, source_id, position, line, name,
		   tvg_id, tvg_name, tvg_logo, tvg_url, tvg_shift,
		   group_title, http_referrer, http_user_agent,
		   catchup_type, catchup_days, catchup_source, timeshift,
		   COALESCE(url, ''), raw, COUNT(*) OVER()
		 FROM entries WHERE %s ORDER BY position LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	return query, args
}

func buildEntryCountQuery(f EntryFilter) (string, []any) {
	where, args := entryWhere(f)
	return "SELECT COUNT(*) FROM entries WHERE " + where, args
}

// ListGroups returns group titles of a source with entry counts, in first-seen order.
func (p *Postgres) ListGroups(ctx context.Context, sourceID int64) ([]models.GroupCount, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT group_title, COUNT(*) FROM entries
		 WHERE source_id = $1 AND group_title <> ''
		 GROUP BY group_title ORDER BY MIN(position)`,
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListGroups: %w", err)
	}
	defer rows.Close()
	var out []models.GroupCount
	for rows.Next() {
		var g models.GroupCount
		if err := rows.Scan(&g.Title, &g.Entries); err != nil {
			return nil, fmt.Errorf("ListGroups scan: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func headerAttrs(h models.Header) map[string]string {
	if h.Attrs == nil {
		return map[string]string{}
	}
	return h.Attrs
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
