package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter wires every route and wraps the result in CORS. metrics may be nil.
func NewRouter(app *App, allowedOrigins []string, metrics http.Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/recipes", func(w http.ResponseWriter, r *http.Request) {
		GetRecipes(app, w, r)
	}).Methods("GET")

	r.HandleFunc("/recipes/reload", func(w http.ResponseWriter, r *http.Request) {
		ReloadRecipes(app, w, r)
	}).Methods("POST")

	r.HandleFunc("/recipe", func(w http.ResponseWriter, r *http.Request) {
		GetRecipe(app, w, r)
	}).Methods("GET")

	r.HandleFunc("/recipe", func(w http.ResponseWriter, r *http.Request) {
		CreateRecipe(app, w, r)
	}).Methods("POST")

	r.HandleFunc("/delete/recipe", func(w http.ResponseWriter, r *http.Request) {
		DeleteRecipe(app, w, r)
	}).Methods("DELETE")

	r.HandleFunc("/update/recipe", func(w http.ResponseWriter, r *http.Request) {
		UpdateRecipe(app, w, r)
	}).Methods("PUT")

	r.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		FetchImageHandler(app, w, r)
	}).Methods("GET")

	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}
