package domain

import "time"

const (
	MinScore = 1
	MaxScore = 10
)

// Review is a user's scored opinion of a title. At most one review exists
// per (AuthorID, TitleID); the store enforces it.
type Review struct {
	ID       string    `bson:"_id"`
	TitleID  string    `bson:"title_id"`
	AuthorID string    `bson:"author_id"`
	Author   string    `bson:"author"`
	Score    int       `bson:"score"`
	Text     string    `bson:"text"`
	PubDate  time.Time `bson:"pub_date"`
}

// Comment is a reply to a review. There is no uniqueness constraint.
type Comment struct {
	ID       string    `bson:"_id"`
	ReviewID string    `bson:"review_id"`
	TitleID  string    `bson:"title_id"`
	AuthorID string    `bson:"author_id"`
	Author   string    `bson:"author"`
	Text     string    `bson:"text"`
	PubDate  time.Time `bson:"pub_date"`
}

// ValidateScore checks that score lies in [MinScore, MaxScore].
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	return nil
}

// Rating is the arithmetic mean of scores, or nil when there are none.
// A title without reviews has no rating, never a rating of zero.
func Rating(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := float64(sum) / float64(len(scores))
	return &avg
}
