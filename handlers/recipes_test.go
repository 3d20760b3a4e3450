package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebox/catalog"
	"recipebox/forms"
	"recipebox/models"
	"recipebox/render"
	"recipebox/store"
)

type fakeGateway struct {
	mu      sync.Mutex
	recipes []models.Recipe
	errs    []error
	calls   int
}

func (g *fakeGateway) FetchRecipes(ctx context.Context) ([]models.Recipe, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() { g.calls++ }()
	if g.calls < len(g.errs) && g.errs[g.calls] != nil {
		return nil, g.errs[g.calls]
	}
	return g.recipes, nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func seeded() []models.Recipe {
	return []models.Recipe{
		{
			ID:           "52772",
			Title:        "Teriyaki Chicken Casserole",
			ThumbnailURL: "http://img/teriyaki.jpg",
			Instructions: "Preheat oven. Combine soy sauce.",
			Ingredients:  []models.Ingredient{{Name: "soy sauce", Measure: "3/4 cup"}},
		},
		{ID: "52773", Title: "Honey Teriyaki Salmon"},
	}
}

func newApp(t *testing.T, gw catalog.Gateway) (*App, http.Handler) {
	t.Helper()
	app := &App{
		Catalog:         catalog.New(store.New(), gw, catalog.WithLogger(discard)),
		Logger:          discard,
		ThumbnailHeight: 500,
	}
	t.Cleanup(app.Catalog.Close)
	return app, NewRouter(app, []string{"*"}, nil)
}

func readyApp(t *testing.T) (*App, http.Handler) {
	t.Helper()
	app, h := newApp(t, &fakeGateway{recipes: seeded()})
	require.NoError(t, app.Catalog.Refresh(context.Background()))
	return app, h
}

func do(h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rdr))
	return rec
}

func TestGetRecipesStates(t *testing.T) {
	gw := &fakeGateway{recipes: seeded()[:1], errs: []error{errors.New("dns")}}
	app, h := newApp(t, gw)

	rec := do(h, "GET", "/recipes", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"state":"loading"}`, rec.Body.String())

	require.Error(t, app.Catalog.Refresh(context.Background()))
	rec = do(h, "GET", "/recipes", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"state":"failed","error":"Failed to fetch recipes","retry":"/recipes/reload"}`, rec.Body.String())

	rec = do(h, "POST", "/recipes/reload", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool {
		s, _ := app.Catalog.Status()
		return s == catalog.StateReady
	}, time.Second, 5*time.Millisecond)

	rec = do(h, "GET", "/recipes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []render.Card
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	assert.Equal(t, []render.Card{{ID: "52772", Title: "Teriyaki Chicken Casserole", ThumbnailURL: "http://img/teriyaki.jpg"}}, cards)
}

func TestReloadWhileLoading(t *testing.T) {
	block := make(chan struct{})
	app, h := newApp(t, gatewayFunc(func(ctx context.Context) ([]models.Recipe, error) {
		<-block
		return nil, nil
	}))
	require.NoError(t, app.Catalog.Start(context.Background()))

	rec := do(h, "POST", "/recipes/reload", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	close(block)
}

func TestReloadStopsOnClose(t *testing.T) {
	entered := make(chan struct{})
	var calls int
	app, h := newApp(t, gatewayFunc(func(ctx context.Context) ([]models.Recipe, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("down")
		}
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	require.Error(t, app.Catalog.Refresh(context.Background()))

	rec := do(h, "POST", "/recipes/reload", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	<-entered

	closed := make(chan struct{})
	go func() {
		app.Catalog.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the reload fetch")
	}
}

func TestGetRecipe(t *testing.T) {
	_, h := readyApp(t)

	rec := do(h, "GET", "/recipe?id=52772", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail render.DetailView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, []string{"3/4 cup soy sauce"}, detail.Ingredients)
	assert.Equal(t, []string{"Preheat oven", "Combine soy sauce"}, detail.Steps)
	assert.Equal(t, "52772", detail.Recipe.ID)

	assert.Equal(t, http.StatusNotFound, do(h, "GET", "/recipe?id=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "GET", "/recipe", nil).Code)
}

func TestCreateRecipe(t *testing.T) {
	app, h := readyApp(t)
	prev := forms.NewID
	forms.NewID = func() string { return "new-1" }
	defer func() { forms.NewID = prev }()

	rec := do(h, "POST", "/recipe", forms.CreateForm{Title: "Soto Ayam", Ingredients: "chicken, turmeric"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "new-1", created.ID)

	snap := app.Catalog.Store().Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "new-1", snap[2].ID, "appended at the end")
	assert.Equal(t, []models.Ingredient{{Name: "chicken"}, {Name: "turmeric"}}, snap[2].Ingredients)

	rec = do(h, "POST", "/recipe", forms.CreateForm{Title: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, app.Catalog.Store().Snapshot(), 3)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/recipe", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRecipe(t *testing.T) {
	app, h := readyApp(t)

	form := forms.EditForm{Title: "Salmon", Instructions: "Grill."}
	rec := do(h, "PUT", "/update/recipe?id=52773", form)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := app.Catalog.Store().Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, seeded()[0], snap[0])
	assert.Equal(t, models.Recipe{ID: "52773", Title: "Salmon", Instructions: "Grill.", Ingredients: []models.Ingredient{}}, snap[1])

	assert.Equal(t, http.StatusNotFound, do(h, "PUT", "/update/recipe?id=gone", form).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "PUT", "/update/recipe?id=52773", forms.EditForm{}).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "PUT", "/update/recipe", form).Code)
}

func TestDeleteRecipe(t *testing.T) {
	app, h := readyApp(t)

	assert.Equal(t, http.StatusNoContent, do(h, "DELETE", "/delete/recipe?id=52772", nil).Code)
	assert.Equal(t, http.StatusNoContent, do(h, "DELETE", "/delete/recipe?id=52772", nil).Code)
	assert.Equal(t, 1, app.Catalog.Store().Len())
	assert.Equal(t, http.StatusBadRequest, do(h, "DELETE", "/delete/recipe", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	_, h := readyApp(t)
	req := httptest.NewRequest("OPTIONS", "/recipe", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFetchImageHandler(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			src.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer imgSrv.Close()

	gw := &fakeGateway{recipes: []models.Recipe{
		{ID: "img", Title: "Pic", ThumbnailURL: imgSrv.URL + "/pic.png"},
		{ID: "bare", Title: "No pic"},
	}}
	app, h := newApp(t, gw)
	require.NoError(t, app.Catalog.Refresh(context.Background()))

	rec := do(h, "GET", "/image?id=img&height=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	out, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 10, out.Bounds().Dy())

	assert.Equal(t, http.StatusNotFound, do(h, "GET", "/image?id=bare", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, "GET", "/image?id=missing", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "GET", "/image?id=img&height=abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "GET", "/image", nil).Code)
}

type gatewayFunc func(ctx context.Context) ([]models.Recipe, error)

func (f gatewayFunc) FetchRecipes(ctx context.Context) ([]models.Recipe, error) { return f(ctx) }
