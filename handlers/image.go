package handlers

import (
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
)

const maxThumbnailHeight = 2000

// FetchImageHandler fetches a recipe's thumbnail, resizes it to the requested
// height keeping its aspect ratio, and returns it.
func FetchImageHandler(app *App, w http.ResponseWriter, r *http.Request) {
	recipeID := r.URL.Query().Get("id")
	if recipeID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	newHeight := app.ThumbnailHeight
	if h := r.URL.Query().Get("height"); h != "" {
		n, err := strconv.ParseUint(h, 10, 32)
		if err != nil || n == 0 || n > maxThumbnailHeight {
			http.Error(w, "Invalid 'height' query parameter", http.StatusBadRequest)
			return
		}
		newHeight = uint(n)
	}

	recipe, ok := app.store().Get(recipeID)
	if !ok {
		http.Error(w, "No matching recipe found", http.StatusNotFound)
		return
	}
	if recipe.ThumbnailURL == "" {
		http.Error(w, "Recipe has no image", http.StatusNotFound)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, recipe.ThumbnailURL, nil)
	if err != nil {
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	client := app.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		app.Logger.Warn("fetching thumbnail", "id", recipeID, "error", err)
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}

	img, format, err := image.Decode(resp.Body)
	if err != nil {
		http.Error(w, "Failed to decode image", http.StatusBadGateway)
		return
	}

	originalBounds := img.Bounds()
	if originalBounds.Dy() == 0 {
		http.Error(w, "Failed to decode image", http.StatusBadGateway)
		return
	}
	aspectRatio := float64(originalBounds.Dx()) / float64(originalBounds.Dy())
	newWidth := uint(float64(newHeight) * aspectRatio)
	if newWidth == 0 {
		newWidth = 1
	}

	resizedImg := resize.Resize(newWidth, newHeight, img, resize.Lanczos3)

	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		w.Header().Set("Content-Type", "image/jpeg")
		err = jpeg.Encode(w, resizedImg, nil)
	case "png":
		w.Header().Set("Content-Type", "image/png")
		err = png.Encode(w, resizedImg)
	default:
		http.Error(w, "Unsupported image format", http.StatusUnsupportedMediaType)
		return
	}

	if err != nil {
		app.Logger.Error("encoding thumbnail", "id", recipeID, "error", err)
	}
}
