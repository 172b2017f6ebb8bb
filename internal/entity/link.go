// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which maps a short code to an original URL
// together with its click statistics, and the errors shared by every layer.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when attempting to create a link with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrLinkNotFound is returned when a link with the specified short code cannot be found.
	ErrLinkNotFound = errors.New("link not found")
	// ErrInvalidURL is returned when the original URL is missing or is not an absolute URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidShortCode is returned when a custom short code is not 6-8 alphanumeric characters.
	ErrInvalidShortCode = errors.New("invalid short code")
)

// Link represents a shortened URL.
type Link struct {
	ID          int64     // ID is the unique identifier of the link in the database.
	ShortCode   string    // ShortCode is the code used as the redirect path segment.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	LinkStats             // LinkStats contains click statistics of the link.
	CreatedAt   time.Time // CreatedAt is the timestamp when the link was created.
	UpdatedAt   time.Time // UpdatedAt is the timestamp when the link stats were last changed.
}

// LinkStats contains click statistics of a link.
type LinkStats struct {
	Clicks      int64      // Clicks is the number of times the link has been resolved.
	LastClicked *time.Time // LastClicked is the time of the latest click, nil until the first one.
}
