package main

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

type Post struct {
	ID          int64
	Title       string
	Body        string
	AuthorID    int64
	AuthorName  string
	CreatedDate time.Time
}

// Identity is the user recovered from a verified session token.
type Identity struct {
	UserID   int64
	Username string
}
