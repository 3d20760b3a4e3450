// Package render derives display data from recipes. Nothing here is cached:
// every call recomputes from the recipe it is given.
package render

import (
	"strconv"
	"strings"

	"recipebox/models"
)

// Card is one cell of the recipe grid.
type Card struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// DetailView is everything the detail screen shows, plus the full record so an
// edit form can be prefilled from it.
type DetailView struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	ThumbnailURL string        `json:"thumbnailUrl"`
	Ingredients  []string      `json:"ingredients"`
	Steps        []string      `json:"steps"`
	Recipe       models.Recipe `json:"recipe"`
}

// Ingredients pairs every populated ingredient slot with its measure as
// "<measure> <ingredient>". Slots without an ingredient name are skipped.
func Ingredients(r models.Recipe) []string {
	out := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(ing.Measure+" "+ing.Name))
	}
	return out
}

// Steps splits instructions on '.' and drops empty fragments.
func Steps(instructions string) []string {
	parts := strings.Split(instructions, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NumberedSteps prefixes each step with its 1-based position.
func NumberedSteps(instructions string) []string {
	steps := Steps(instructions)
	for i, s := range steps {
		steps[i] = strconv.Itoa(i+1) + ". " + s
	}
	return steps
}

func CardOf(r models.Recipe) Card {
	return Card{ID: r.ID, Title: r.Title, ThumbnailURL: r.ThumbnailURL}
}

// Grid turns a snapshot into cards, keeping its order.
func Grid(recipes []models.Recipe) []Card {
	cards := make([]Card, len(recipes))
	for i, r := range recipes {
		cards[i] = CardOf(r)
	}
	return cards
}

func Detail(r models.Recipe) DetailView {
	return DetailView{
		ID:           r.ID,
		Title:        r.Title,
		ThumbnailURL: r.ThumbnailURL,
		Ingredients:  Ingredients(r),
		Steps:        Steps(r.Instructions),
		Recipe:       r.Clone(),
	}
}
