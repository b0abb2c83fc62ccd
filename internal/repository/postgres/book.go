package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/pkg/database"
	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/pagination"
)

const bookColumns = `b.id, b.isbn, b.title, b.author, b.year, b.review_count, b.average_rating`

// searchColumns is the only source of column names in search queries.
var searchColumns = map[domain.SearchField]string{
	domain.SearchByTitle:  "b.title",
	domain.SearchByAuthor: "b.author",
	domain.SearchByISBN:   "b.isbn",
}

// likeEscaper escapes LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	db database.DBTX
}

// NewBookRepository creates a book repository on a pool or transaction.
func NewBookRepository(db database.DBTX) *BookRepository {
	return &BookRepository{db: db}
}

// GetByID retrieves a book by id.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.id = $1`

	b, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("book", id)
		}
		return nil, fmt.Errorf("get book by id: %w", err)
	}
	return b, nil
}

// GetByISBN retrieves a book by ISBN.
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.isbn = $1`

	b, err := scanBook(r.db.QueryRow(ctx, query, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundBy("book", "isbn", isbn)
		}
		return nil, fmt.Errorf("get book by isbn: %w", err)
	}
	return b, nil
}

// Search returns books whose field contains pattern, ordered by title.
func (r *BookRepository) Search(ctx context.Context, field domain.SearchField, pattern string, params pagination.Params) ([]domain.Book, int, error) {
	column, ok := searchColumns[field]
	if !ok {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown search field %q", field))
	}
	params = params.Normalize()

	query := `
		SELECT ` + bookColumns + `, count(*) OVER() AS total_count
		FROM books b
		WHERE ` + column + ` ILIKE $1 ESCAPE '\'
		ORDER BY b.title, b.id
		LIMIT $2 OFFSET $3`

	like := "%" + likeEscaper.Replace(pattern) + "%"
	rows, err := r.db.Query(ctx, query, like, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	var (
		books []domain.Book
		total int
	)
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Year, &b.ReviewCount, &b.AverageRating, &total); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	// The window total is absent on a page past the end.
	if len(books) == 0 && params.Offset() > 0 {
		countQuery := `SELECT COUNT(*) FROM books b WHERE ` + column + ` ILIKE $1 ESCAPE '\'`
		if err := r.db.QueryRow(ctx, countQuery, like).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count books: %w", err)
		}
	}

	return books, total, nil
}

// LockForUpdate takes row locks on the given books in id order so that
// concurrent writers always lock in the same sequence.
func (r *BookRepository) LockForUpdate(ctx context.Context, ids ...string) error {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return nil
	}

	query := `SELECT id FROM books WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("lock books: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan locked book: %w", err)
		}
		locked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locked books: %w", err)
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return apperrors.NotFound("book", id)
		}
	}
	return nil
}

// UpdateAggregate stores a book's review count and average rating.
func (r *BookRepository) UpdateAggregate(ctx context.Context, id string, agg domain.Aggregate) error {
	query := `UPDATE books SET review_count = $2, average_rating = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, agg.ReviewCount, agg.AverageRating)
	if err != nil {
		return fmt.Errorf("update book aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("book", id)
	}
	return nil
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var b domain.Book
	if err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Year, &b.ReviewCount, &b.AverageRating); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBooks(rows pgx.Rows) ([]domain.Book, error) {
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}
	return books, nil
}
