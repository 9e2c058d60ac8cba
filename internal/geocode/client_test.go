package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("count"))

		switch r.URL.Query().Get("name") {
		case "Kyiv":
			w.Write([]byte(`{"results":[{"latitude":50.45,"longitude":30.52,"name":"Kyiv","country":"Ukraine"}]}`))
		default:
			w.Write([]byte(`{"results":[]}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	loc, err := c.Lookup(context.Background(), "Kyiv")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, 50.45, loc.Latitude)
	assert.Equal(t, "Ukraine", loc.Country)

	loc, err = c.Lookup(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestClientLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	loc, err := c.Lookup(context.Background(), "Kyiv")
	assert.Error(t, err)
	assert.Nil(t, loc)
}
