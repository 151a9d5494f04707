// Package content provides the concrete SQL-based implementation of the
// PostRepository.
package content

import (
	"database/sql"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/content"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/database"
)

var _ repositories.PostRepository = (*SQLPostRepository)(nil)

// SQLPostRepository is the SQL-based implementation of the PostRepository.
type SQLPostRepository struct {
	db *database.DB
}

// NewSQLPostRepository creates a new instance of the repository.
func NewSQLPostRepository(db *database.DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

const postColumns = `id, title, slug, published, published_at, created_at, updated_at`

// FindPublished retrieves published posts, newest first.
func (r *SQLPostRepository) FindPublished() ([]*content.Post, error) {
	const query = `SELECT ` + postColumns + `
		FROM posts WHERE published = 1
		ORDER BY published_at DESC`

	return r.queryPosts(query)
}

// FindAll retrieves every post including drafts, newest first.
func (r *SQLPostRepository) FindAll() ([]*content.Post, error) {
	const query = `SELECT ` + postColumns + `
		FROM posts ORDER BY created_at DESC`

	return r.queryPosts(query)
}

func (r *SQLPostRepository) queryPosts(query string, args ...any) ([]*content.Post, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*content.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func scanPost(rows *sql.Rows) (*content.Post, error) {
	var post content.Post
	var published int
	var publishedAt sql.NullString
	var createdAtStr, updatedAtStr string

	err := rows.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&published,
		&publishedAt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	post.Published = published != 0
	if post.PublishedAt, err = database.NullableTimestamp(publishedAt); err != nil {
		return nil, err
	}
	if post.CreatedAt, err = database.ParseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if post.UpdatedAt, err = database.ParseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}
	return &post, nil
}
