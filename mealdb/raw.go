package mealdb

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"recipebox/models"
)

// MaxIngredientSlots is how many strIngredientK/strMeasureK pairs a meal carries.
const MaxIngredientSlots = 20

// RawRecipe is a meal as TheMealDB returns it.
type RawRecipe struct {
	IDMeal          string
	StrMeal         string
	StrMealThumb    string
	StrInstructions string
	Ingredients     [MaxIngredientSlots]string
	Measures        [MaxIngredientSlots]string
}

// UnmarshalJSON accepts null or missing fields, leaving them empty.
func (r *RawRecipe) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = RawFromMap(fields)
	return nil
}

// RawFromMap reads a meal out of a generic field map, as decoded from JSON or
// read from a document store.
func RawFromMap(fields map[string]any) RawRecipe {
	r := RawRecipe{
		IDMeal:          stringField(fields["idMeal"]),
		StrMeal:         stringField(fields["strMeal"]),
		StrMealThumb:    stringField(fields["strMealThumb"]),
		StrInstructions: stringField(fields["strInstructions"]),
	}
	for i := 0; i < MaxIngredientSlots; i++ {
		n := strconv.Itoa(i + 1)
		r.Ingredients[i] = stringField(fields["strIngredient"+n])
		r.Measures[i] = stringField(fields["strMeasure"+n])
	}
	return r
}

// Recipe translates r into the entity every view works with. A meal without
// an idMeal gets a fresh id. Slots where both ingredient and measure are blank
// are dropped.
func (r RawRecipe) Recipe() models.Recipe {
	id := strings.TrimSpace(r.IDMeal)
	if id == "" {
		id = uuid.New().String()
	}
	out := models.Recipe{
		ID:           id,
		Title:        r.StrMeal,
		ThumbnailURL: r.StrMealThumb,
		Instructions: r.StrInstructions,
	}
	for i := 0; i < MaxIngredientSlots; i++ {
		name := strings.TrimSpace(r.Ingredients[i])
		measure := strings.TrimSpace(r.Measures[i])
		if name == "" && measure == "" {
			continue
		}
		out.Ingredients = append(out.Ingredients, models.Ingredient{Name: name, Measure: measure})
	}
	return out
}

func stringField(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}
