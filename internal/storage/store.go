package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("record not found")

// DB is the database handle surface the repositories need.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store wraps the metadata database connection pool.
type Store struct {
	db    *sql.DB
	Books *BookRepository
}

// Open connects to the metadata store. Driver is "sqlite3" or
// "postgres"; dsn is the sqlite file path or the postgres DSN.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	return &Store{db: db, Books: NewBookRepository(db)}, nil
}

// Init creates the schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS Books (
			ID_book  TEXT PRIMARY KEY,
			NOM      TEXT,
			PATH     TEXT,
			URLCover TEXT
		)
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// BookRepository handles Books CRUD.
type BookRepository struct {
	db DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db DB) *BookRepository {
	return &BookRepository{db: db}
}

// Insert adds a book row.
func (r *BookRepository) Insert(ctx context.Context, book *Book) error {
	query := `INSERT INTO Books (ID_book, NOM, PATH, URLCover) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, book.ID, book.Name, book.Path, book.CoverURL)
	return err
}

// GetByID retrieves a book by its identifier.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*Book, error) {
	query := `SELECT ID_book, NOM, PATH, URLCover FROM Books WHERE ID_book = $1`
	book := &Book{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&book.ID, &book.Name, &book.Path, &book.CoverURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return book, err
}

// WithBlankCovers returns every book whose cover URL is unset or one of
// the literal placeholders the web client writes.
func (r *BookRepository) WithBlankCovers(ctx context.Context) ([]Book, error) {
	query := `
		SELECT ID_book, NOM, PATH, URLCover FROM Books
		WHERE URLCover IS NULL OR URLCover = 'null' OR URLCover = 'undefined'
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var book Book
		if err := rows.Scan(&book.ID, &book.Name, &book.Path, &book.CoverURL); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// UpdateCoverURL sets URLCover on the row whose ID_book equals key.
// Both the cover filler (book id) and the transcoder (original cover
// filename) write through here with their respective keys; a key that
// matches no row updates nothing and is not an error.
func (r *BookRepository) UpdateCoverURL(ctx context.Context, key, coverURL string) error {
	query := `UPDATE Books SET URLCover = $1 WHERE ID_book = $2`
	_, err := r.db.ExecContext(ctx, query, coverURL, key)
	return err
}
