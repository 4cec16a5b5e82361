package domain

import "time"

// Category is one of the closed classification labels.
type Category string

const (
	CategoryPolitics Category = "politics"
	CategorySports   Category = "sports"
	CategoryOthers   Category = "others"
)

// Categories lists the labels in tie-break precedence order.
var Categories = []Category{CategoryPolitics, CategorySports, CategoryOthers}

// Valid reports whether c is one of the closed labels.
func (c Category) Valid() bool {
	switch c {
	case CategoryPolitics, CategorySports, CategoryOthers:
		return true
	}
	return false
}

// Article is a normalized news item. ID is assigned by the store on insert;
// Category stays empty until the classifier has run.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
	Source    string    `json:"source"`
	Category  Category  `json:"category,omitempty"`
}

// Classified reports whether the article already carries a label.
func (a Article) Classified() bool {
	return a.Category != ""
}
