package domain

import (
	"regexp"
	"time"
)

// MinTitleYear is the earliest release year a title may carry: the start of
// the Quaternary period. Years before the common era are negative.
const MinTitleYear = -2588000

const (
	MaxNameLength = 256
	MaxSlugLength = 50
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Category groups titles by kind of work (films, books, music, ...).
type Category struct {
	Name string `json:"name" bson:"name"`
	Slug string `json:"slug" bson:"slug"`
}

// Genre is a tag a title can carry any number of.
type Genre struct {
	Name string `json:"name" bson:"name"`
	Slug string `json:"slug" bson:"slug"`
}

// Title is a catalog work. Its rating is never stored; see Rating.
type Title struct {
	ID          string   `bson:"_id"`
	Name        string   `bson:"name"`
	Year        int      `bson:"year"`
	Description string   `bson:"description"`
	Genres      []string `bson:"genres"`
	Category    string   `bson:"category,omitempty"`
}

// ValidateTitleYear checks that year lies in [MinTitleYear, now.Year()].
func ValidateTitleYear(year int, now time.Time) error {
	if year < MinTitleYear || year > now.Year() {
		return ErrInvalidYear
	}
	return nil
}

// ValidateSlug checks a category or genre slug.
func ValidateSlug(slug string) error {
	if slug == "" {
		return NewFieldError("slug", "is required")
	}
	if len(slug) > MaxSlugLength {
		return NewFieldError("slug", "must be at most %d characters", MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// ValidateName checks a display name of a category, genre or title.
func ValidateName(name string) error {
	if name == "" {
		return NewFieldError("name", "is required")
	}
	if len(name) > MaxNameLength {
		return NewFieldError("name", "must be at most %d characters", MaxNameLength)
	}
	return nil
}
