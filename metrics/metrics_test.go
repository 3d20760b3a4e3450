package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebox/models"
	"recipebox/store"
)

func TestObserveStore(t *testing.T) {
	st := store.New()
	st.Add(models.Recipe{ID: "pre"})

	m := New()
	stop := m.Observe(st)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recipes))

	st.Load([]models.Recipe{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	st.Add(models.Recipe{ID: "d"})
	st.Delete("a")
	require.NoError(t, st.Update(models.Recipe{ID: "b", Title: "B"}))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.recipes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("load")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("update")))

	stop()
	st.Add(models.Recipe{ID: "e"})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.recipes))
}

func TestFetchDone(t *testing.T) {
	m := New()
	m.FetchDone(nil)
	m.FetchDone(errors.New("x"))
	m.FetchDone(errors.New("y"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("failure")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.FetchDone(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `recipebox_fetches_total{result="success"} 1`)
	assert.Contains(t, string(body), "recipebox_recipes 0")
}
