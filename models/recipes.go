package models

// Ingredient is one (ingredient, measure) slot of a recipe. Either field may be empty.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	ThumbnailURL string       `json:"thumbnailUrl"`
	Instructions string       `json:"instructions"`
	Ingredients  []Ingredient `json:"ingredients"`
}

// Clone returns a copy of r that shares no slices with it.
func (r Recipe) Clone() Recipe {
	out := r
	if r.Ingredients != nil {
		out.Ingredients = make([]Ingredient, len(r.Ingredients))
		copy(out.Ingredients, r.Ingredients)
	}
	return out
}
