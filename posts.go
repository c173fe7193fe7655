package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"
)

const postColumns = `
	SELECT posts.id, posts.title, posts.body, posts.authorid, users.username, posts.createdDate
	FROM posts
	INNER JOIN users ON posts.authorid = users.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var post Post
	var created string
	err := row.Scan(&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.AuthorName, &created)
	if err != nil {
		return Post{}, err
	}
	post.CreatedDate, err = time.Parse(createdDateLayout, created)
	if err != nil {
		return Post{}, oops.Code("STORE_BAD_ROW").With("createdDate", created).Wrap(err)
	}
	return post, nil
}

func (s *sqliteStore) FindPostByID(ctx context.Context, id int64) (*Post, error) {
	row := s.db.QueryRowContext(ctx, postColumns+" WHERE posts.id = ?", id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("STORE_QUERY_FAILED").
			With("operation", "find post by id").
			With("post_id", id).
			Wrap(err)
	}
	return &post, nil
}

func (s *sqliteStore) ListPostsByAuthor(ctx context.Context, authorID int64) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx,
		postColumns+" WHERE posts.authorid = ? ORDER BY posts.createdDate DESC, posts.id DESC", authorID)
	if err != nil {
		return nil, oops.Code("STORE_QUERY_FAILED").
			With("operation", "list posts by author").
			With("author_id", authorID).
			Wrap(err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, oops.Code("STORE_QUERY_FAILED").
				With("operation", "scan post").
				Wrap(err)
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, oops.Code("STORE_QUERY_FAILED").Wrap(err)
	}

	return posts, nil
}

func (s *sqliteStore) InsertPost(ctx context.Context, title, body string, authorID int64, createdDate time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (title, body, authorid, createdDate)
		VALUES (?, ?, ?, ?)`, title, body, authorID, createdDate.UTC().Format(createdDateLayout))
	if err != nil {
		return 0, oops.Code("STORE_INSERT_FAILED").
			With("operation", "insert post").
			With("author_id", authorID).
			Wrap(err)
	}
	return result.LastInsertId()
}

func (s *sqliteStore) UpdatePost(ctx context.Context, id int64, title, body string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, body = ?
		WHERE id = ?`, title, body, id)
	if err != nil {
		return oops.Code("STORE_UPDATE_FAILED").With("post_id", id).Wrap(err)
	}
	return nil
}

func (s *sqliteStore) DeletePost(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return oops.Code("STORE_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	return nil
}
