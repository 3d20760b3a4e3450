package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"recipebox/catalog"
	"recipebox/forms"
	"recipebox/models"
	"recipebox/render"
	"recipebox/store"
)

// App is what every handler needs: the catalog that owns the store, and a logger.
type App struct {
	Catalog         *catalog.Catalog
	Logger          *slog.Logger
	HTTPClient      *http.Client
	ThumbnailHeight uint
}

func (a *App) store() *store.Store { return a.Catalog.Store() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ensureSlices keeps empty ingredient lists encoding as [] rather than null.
func ensureSlices(r models.Recipe) models.Recipe {
	if r.Ingredients == nil {
		r.Ingredients = []models.Ingredient{}
	}
	return r
}

type stateResponse struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
	Retry string `json:"retry,omitempty"`
}

// GetRecipes renders the grid, or the loading/failed state while the list is
// not available yet.
func GetRecipes(app *App, w http.ResponseWriter, r *http.Request) {
	state, _ := app.Catalog.Status()
	switch state {
	case catalog.StateLoading:
		writeJSON(w, http.StatusServiceUnavailable, stateResponse{State: state.String()})
		return
	case catalog.StateFailed:
		writeJSON(w, http.StatusBadGateway, stateResponse{
			State: state.String(),
			Error: catalog.FailedMessage,
			Retry: "/recipes/reload",
		})
		return
	}

	writeJSON(w, http.StatusOK, render.Grid(app.store().Snapshot()))
}

// ReloadRecipes is the retry button: it re-runs the fetch in the background.
func ReloadRecipes(app *App, w http.ResponseWriter, r *http.Request) {
	// The fetch outlives this request.
	if err := app.Catalog.Retry(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, catalog.ErrLoading) {
			http.Error(w, "Recipes are already loading", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to reload recipes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, stateResponse{State: catalog.StateLoading.String()})
}

func GetRecipe(app *App, w http.ResponseWriter, r *http.Request) {
	recipeID := r.URL.Query().Get("id")
	if recipeID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	recipe, ok := app.store().Get(recipeID)
	if !ok {
		http.Error(w, "No matching recipe found", http.StatusNotFound)
		return
	}

	detail := render.Detail(recipe)
	detail.Recipe = ensureSlices(detail.Recipe)
	writeJSON(w, http.StatusOK, detail)
}

func CreateRecipe(app *App, w http.ResponseWriter, r *http.Request) {
	var form forms.CreateForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		app.Logger.Warn("decoding create form", "error", err)
		return
	}

	recipe, err := form.Recipe()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	app.store().Add(recipe)
	app.Logger.Info("recipe created", "id", recipe.ID)

	writeJSON(w, http.StatusCreated, ensureSlices(recipe))
}

// UpdateRecipe replaces the whole record named by the id query parameter.
func UpdateRecipe(app *App, w http.ResponseWriter, r *http.Request) {
	recipeID := r.URL.Query().Get("id")
	if recipeID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	var form forms.EditForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		app.Logger.Warn("decoding edit form", "id", recipeID, "error", err)
		return
	}

	recipe, err := form.Apply(recipeID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := app.store().Update(recipe); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.Logger.Warn("update of missing recipe ignored", "id", recipeID)
			http.Error(w, "No matching recipe found", http.StatusNotFound)
			return
		}
		app.Logger.Error("updating recipe", "id", recipeID, "error", err)
		http.Error(w, "Failed to update recipe", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ensureSlices(recipe))
}

// DeleteRecipe succeeds whether or not the recipe still exists.
func DeleteRecipe(app *App, w http.ResponseWriter, r *http.Request) {
	recipeID := r.URL.Query().Get("id")
	if recipeID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	app.store().Delete(recipeID)
	w.WriteHeader(http.StatusNoContent)
}
