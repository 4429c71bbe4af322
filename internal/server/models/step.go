package models

import "time"

// Step is one numbered instruction of a local recipe. Numbers are 1-based and
// contiguous within a recipe.
type Step struct {
	ID          int64
	Recipe      RecipeRef
	Number      int
	Description string
}

// Progress is one user's completion state of one step. CompletedAt is set
// iff Completed is true.
type Progress struct {
	UserID      int64
	Recipe      RecipeRef
	Number      int
	Completed   bool
	CompletedAt *time.Time
}

// StepWithProgress is the view returned to clients: a step decorated with
// the caller's completion flag. ID is zero for external steps.
type StepWithProgress struct {
	ID          int64      `json:"id,omitempty"`
	Number      int        `json:"stepNumber"`
	Description string     `json:"stepDescription"`
	Completed   bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ExternalStep is an instruction fetched from the external recipe source.
type ExternalStep struct {
	Number      int
	Description string
}
