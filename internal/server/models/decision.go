package models

import "time"

// Category is the closed set of decision tags.
type Category string

const (
	CategoryCareer   Category = "Career"
	CategoryHealth   Category = "Health"
	CategoryFinance  Category = "Finance"
	CategoryPersonal Category = "Personal"
	CategoryOther    Category = "Other"
)

// Categories lists every valid Category in display order.
var Categories = []Category{CategoryCareer, CategoryHealth, CategoryFinance, CategoryPersonal, CategoryOther}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// MaxTitleLength bounds Decision.Title, counted in characters.
const MaxTitleLength = 100

type Decision struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DecisionPatch carries a partial update; nil fields are left unchanged.
type DecisionPatch struct {
	Title       *string
	Description *string
	Category    *Category
}

// Empty reports whether the patch changes nothing.
func (p DecisionPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil
}

// Apply returns a copy of d with the patch applied.
func (p DecisionPatch) Apply(d Decision) Decision {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	return d
}
