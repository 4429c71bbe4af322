// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RecipeKind tells which owning table a recipe id points into.
type RecipeKind string

const (
	KindPersonal RecipeKind = "personal"
	KindFamily   RecipeKind = "family"
	KindExternal RecipeKind = "external"
)

// ParseRecipeKind accepts the kind names used in URLs. "user" and
// "spoonacular" are accepted as aliases of personal and external.
func ParseRecipeKind(s string) (RecipeKind, bool) {
	switch strings.ToLower(s) {
	case "personal", "user", "my":
		return KindPersonal, true
	case "family":
		return KindFamily, true
	case "external", "spoonacular":
		return KindExternal, true
	}
	return "", false
}

// RecipeRef addresses exactly one recipe of one kind. It is resolved once at
// the request boundary; everything below it switches on Kind.
type RecipeRef struct {
	Kind RecipeKind
	ID   int64
}

func PersonalRef(id int64) RecipeRef { return RecipeRef{Kind: KindPersonal, ID: id} }
func FamilyRef(id int64) RecipeRef   { return RecipeRef{Kind: KindFamily, ID: id} }
func ExternalRef(id int64) RecipeRef { return RecipeRef{Kind: KindExternal, ID: id} }

// ParseRecipeRef builds a reference from URL path values.
func ParseRecipeRef(kind, id string) (RecipeRef, error) {
	k, ok := ParseRecipeKind(kind)
	if !ok {
		return RecipeRef{}, fmt.Errorf("unknown recipe kind %q", kind)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return RecipeRef{}, fmt.Errorf("bad recipe id %q", id)
	}
	ref := RecipeRef{Kind: k, ID: n}
	if err := ref.Validate(); err != nil {
		return RecipeRef{}, err
	}
	return ref, nil
}

func (r RecipeRef) Validate() error {
	switch r.Kind {
	case KindPersonal, KindFamily, KindExternal:
	default:
		return fmt.Errorf("unknown recipe kind %q", r.Kind)
	}
	if r.ID <= 0 {
		return fmt.Errorf("recipe id must be positive, got %d", r.ID)
	}
	return nil
}

// Local reports whether steps of this recipe are authored in our database.
func (r RecipeRef) Local() bool { return r.Kind == KindPersonal || r.Kind == KindFamily }

func (r RecipeRef) String() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10)
}
