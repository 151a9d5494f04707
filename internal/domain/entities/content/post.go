// Package content defines the content records served by the site.
package content

import "time"

// Post is a blog post or portfolio entry. Only the fields the caching and
// analytics core needs are modeled here; body rendering lives upstream.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
