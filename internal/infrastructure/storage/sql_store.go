package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	articlesTable = "articles"
)

var articleColumns = []string{"id", "title", "link", "published", "source", "category"}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	link TEXT NOT NULL,
	published TIMESTAMPTZ NOT NULL,
	source TEXT NOT NULL,
	category TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_title ON articles(title);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	link TEXT NOT NULL,
	published TIMESTAMP NOT NULL,
	source TEXT NOT NULL,
	category TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_title ON articles(title);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published);
`

// SQLStore persists articles into Postgres or SQLite.
type SQLStore struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	loc *time.Location
}

var _ ports.ArticleStore = (*SQLStore)(nil)

// Open connects to the database and creates the schema when missing.
// Timestamps are read back in loc.
func Open(ctx context.Context, driver, dsn string, loc *time.Location) (*SQLStore, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, err := NewSQLStore(ctx, db, driver, loc)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires an existing sql.DB and bootstraps the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string, loc *time.Location) (*SQLStore, error) {
	if loc == nil {
		loc = time.UTC
	}

	schema := postgresSchema
	var placeholder sq.PlaceholderFormat = sq.Dollar
	if driver == DriverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
		schema = sqliteSchema
		placeholder = sq.Question
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLStore{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(placeholder),
		loc: loc,
	}, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// InTx runs fn in a single transaction; any error rolls back every write.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx ports.ArticleTx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err := fn(&articleTx{tx: tx, sb: s.sb, loc: s.loc}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// List returns one page ordered newest first.
func (s *SQLStore) List(ctx context.Context, q ports.ListQuery) ([]domain.Article, error) {
	builder := s.sb.Select(articleColumns...).
		From(articlesTable).
		OrderBy("published DESC", "id DESC")
	if q.Category != "" {
		builder = builder.Where(sq.Eq{"category": string(q.Category)})
	}
	// sqlite accepts OFFSET only together with LIMIT
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
		if q.Offset > 0 {
			builder = builder.Offset(uint64(q.Offset))
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	return scanArticles(rows, s.loc)
}

// Count returns the number of stored articles, optionally within one category.
func (s *SQLStore) Count(ctx context.Context, category domain.Category) (int, error) {
	builder := s.sb.Select("COUNT(*)").From(articlesTable)
	if category != "" {
		builder = builder.Where(sq.Eq{"category": string(category)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Stats aggregates counts per source, category, civil day and civil hour.
// Day and hour buckets are taken in the store location.
func (s *SQLStore) Stats(ctx context.Context, topDays int) (ports.Stats, error) {
	stats := ports.Stats{
		BySource:   map[string]int{},
		ByCategory: map[domain.Category]int{},
		ByHour:     map[int]int{},
		TopDays:    []ports.DayCount{},
	}

	if err := s.groupCount(ctx, "source", func(key string, n int) {
		stats.BySource[key] = n
	}); err != nil {
		return ports.Stats{}, err
	}

	if err := s.groupCount(ctx, "category", func(key string, n int) {
		stats.ByCategory[domain.Category(key)] = n
	}); err != nil {
		return ports.Stats{}, err
	}

	query, args, err := s.sb.Select("published").From(articlesTable).ToSql()
	if err != nil {
		return ports.Stats{}, fmt.Errorf("build published: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ports.Stats{}, fmt.Errorf("query published: %w", err)
	}
	defer rows.Close()

	days := map[string]int{}
	for rows.Next() {
		var published time.Time
		if err := rows.Scan(&published); err != nil {
			return ports.Stats{}, fmt.Errorf("scan published: %w", err)
		}
		local := published.In(s.loc)
		days[local.Format(time.DateOnly)]++
		stats.ByHour[local.Hour()]++
		stats.Total++
	}
	if err := rows.Err(); err != nil {
		return ports.Stats{}, fmt.Errorf("rows iteration: %w", err)
	}

	for day, n := range days {
		stats.TopDays = append(stats.TopDays, ports.DayCount{Day: day, Count: n})
	}
	sort.Slice(stats.TopDays, func(i, j int) bool {
		if stats.TopDays[i].Count != stats.TopDays[j].Count {
			return stats.TopDays[i].Count > stats.TopDays[j].Count
		}
		return stats.TopDays[i].Day > stats.TopDays[j].Day
	})
	if topDays > 0 && len(stats.TopDays) > topDays {
		stats.TopDays = stats.TopDays[:topDays]
	}

	return stats, nil
}

func (s *SQLStore) groupCount(ctx context.Context, column string, put func(key string, n int)) error {
	query, args, err := s.sb.Select(column, "COUNT(*)").
		From(articlesTable).
		Where(sq.NotEq{column: nil}).
		GroupBy(column).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s counts: %w", column, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s counts: %w", column, err)
		}
		put(key, n)
	}
	return rows.Err()
}

type articleTx struct {
	tx  *sql.Tx
	sb  sq.StatementBuilderType
	loc *time.Location
}

func (t *articleTx) DeleteAll(ctx context.Context) (int64, error) {
	query, args, err := t.sb.Delete(articlesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	return res.RowsAffected()
}

func (t *articleTx) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	query, args, err := t.sb.Select("1").
		From(articlesTable).
		Where(sq.Eq{"title": title}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = t.tx.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query title: %w", err)
	}
	return true, nil
}

func (t *articleTx) Insert(ctx context.Context, article domain.Article) (int64, error) {
	var category any
	if article.Category != "" {
		category = string(article.Category)
	}

	query, args, err := t.sb.Insert(articlesTable).
		Columns("title", "link", "published", "source", "category").
		Values(
			article.Title,
			article.Link,
			article.Published.UTC().Truncate(time.Second),
			article.Source,
			category,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert article %q: %w", article.Title, err)
	}
	return id, nil
}

func (t *articleTx) ListUnclassified(ctx context.Context) ([]domain.Article, error) {
	query, args, err := t.sb.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"category": nil}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unclassified: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unclassified: %w", err)
	}
	return scanArticles(rows, t.loc)
}

func (t *articleTx) UpdateCategory(ctx context.Context, id int64, category domain.Category) error {
	query, args, err := t.sb.Update(articlesTable).
		Set("category", string(category)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update category of %d: %w", id, err)
	}
	return nil
}

func scanArticles(rows *sql.Rows, loc *time.Location) ([]domain.Article, error) {
	defer rows.Close()

	var result []domain.Article
	for rows.Next() {
		var (
			art      domain.Article
			category sql.NullString
		)
		if err := rows.Scan(&art.ID, &art.Title, &art.Link, &art.Published, &art.Source, &category); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		art.Published = art.Published.In(loc)
		art.Category = domain.Category(category.String)
		result = append(result, art)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}
