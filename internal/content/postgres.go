package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Post is the bun model for the site's blog posts table.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Slug      string `bun:"slug,notnull"`
	Title     string `bun:"title,notnull"`
	Body      string `bun:"body,notnull"`
	Published bool   `bun:"published"`
}

// Project is the bun model for the site's projects table.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:pr"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Slug        string `bun:"slug,notnull"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description,notnull"`
}

// Library reads the site's content collections from Postgres. It is the
// read-only collaborator of the batch re-index; nothing in foliorag ever
// writes to these tables.
type Library struct {
	db *bun.DB
}

// NewLibrary opens a bun connection for the given Postgres DSN.
// Verbose enables bundebug query logging.
func NewLibrary(dsn string, verbose bool) (*Library, error) {
	if dsn == "" {
		return nil, fmt.Errorf("content: DATABASE_URL is not set")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Library{db: db}, nil
}

// NewLibraryFromDB wraps an existing bun connection; used by tests.
func NewLibraryFromDB(db *bun.DB) *Library {
	return &Library{db: db}
}

// Posts returns all published blog posts flattened into Documents.
func (l *Library) Posts(ctx context.Context) ([]Document, error) {
	var posts []Post
	err := l.db.NewSelect().
		Model(&posts).
		Where("published = TRUE").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: fetch posts: %w", err)
	}

	docs := make([]Document, 0, len(posts))
	for _, p := range posts {
		docs = append(docs, FromPost(p))
	}
	return docs, nil
}

// Projects returns all project records flattened into Documents.
func (l *Library) Projects(ctx context.Context) ([]Document, error) {
	var projects []Project
	err := l.db.NewSelect().
		Model(&projects).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: fetch projects: %w", err)
	}

	docs := make([]Document, 0, len(projects))
	for _, p := range projects {
		docs = append(docs, FromProject(p))
	}
	return docs, nil
}

// All returns the full re-index corpus: the about boilerplate, then posts,
// then projects. Order is stable so re-ingestion is structurally idempotent.
func (l *Library) All(ctx context.Context) ([]Document, error) {
	docs := []Document{About()}

	posts, err := l.Posts(ctx)
	if err != nil {
		return nil, err
	}
	docs = append(docs, posts...)

	projects, err := l.Projects(ctx)
	if err != nil {
		return nil, err
	}
	docs = append(docs, projects...)

	return docs, nil
}

// Ping checks database connectivity.
func (l *Library) Ping(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return fmt.Errorf("content: ping failed: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (l *Library) Close() error {
	return l.db.Close()
}
