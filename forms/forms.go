// Package forms validates user input from the create and edit screens before
// it reaches the store.
package forms

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"recipebox/models"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrIDRequired    = errors.New("id is required")
)

// CreateForm is the add-recipe screen. Ingredients is free text with entries
// separated by commas.
type CreateForm struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
}

// EditForm is the edit screen: a full replacement of the record's fields.
type EditForm struct {
	Title        string              `json:"title"`
	ThumbnailURL string              `json:"thumbnailUrl"`
	Ingredients  []models.Ingredient `json:"ingredients"`
	Instructions string              `json:"instructions"`
}

// NewID assigns ids to created recipes. Tests may replace it.
var NewID = func() string {
	return uuid.New().String()
}

// Recipe validates the form and builds a new recipe with a fresh id. Only the
// ingredients typed into this form are used.
func (f CreateForm) Recipe() (models.Recipe, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return models.Recipe{}, ErrTitleRequired
	}
	return models.Recipe{
		ID:           NewID(),
		Title:        title,
		ThumbnailURL: strings.TrimSpace(f.ThumbnailURL),
		Instructions: f.Instructions,
		Ingredients:  ParseIngredients(f.Ingredients),
	}, nil
}

// Apply validates the form and returns the replacement for the recipe with id.
// The id never comes from the form body.
func (f EditForm) Apply(id string) (models.Recipe, error) {
	if strings.TrimSpace(id) == "" {
		return models.Recipe{}, ErrIDRequired
	}
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return models.Recipe{}, ErrTitleRequired
	}
	ings := make([]models.Ingredient, 0, len(f.Ingredients))
	for _, ing := range f.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Measure = strings.TrimSpace(ing.Measure)
		if ing.Name == "" && ing.Measure == "" {
			continue
		}
		ings = append(ings, ing)
	}
	return models.Recipe{
		ID:           id,
		Title:        title,
		ThumbnailURL: strings.TrimSpace(f.ThumbnailURL),
		Instructions: f.Instructions,
		Ingredients:  ings,
	}, nil
}

// EditFormFor prefills an edit form from r.
func EditFormFor(r models.Recipe) EditForm {
	c := r.Clone()
	return EditForm{
		Title:        c.Title,
		ThumbnailURL: c.ThumbnailURL,
		Ingredients:  c.Ingredients,
		Instructions: c.Instructions,
	}
}

// ParseIngredients splits comma separated text into ingredients without
// measures, dropping blank entries.
func ParseIngredients(text string) []models.Ingredient {
	var out []models.Ingredient
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, models.Ingredient{Name: part})
	}
	return out
}
