package geo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, nominatim, overpass string) *Client {
	t.Helper()
	c, err := NewClient(nominatim, overpass, 8, time.Hour, discardLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestLocation_Query(t *testing.T) {
	assert.Equal(t, "Austin, TX, USA", Location{City: "Austin", State: "TX", Country: "USA"}.Query())
	assert.Equal(t, "Lisbon, Portugal", Location{City: " Lisbon ", Country: "Portugal"}.Query())
}

func TestCategory_AmenityPattern(t *testing.T) {
	assert.Equal(t, "fitness_centre|sports_centre", CategoryGym.AmenityPattern())
	assert.Equal(t, "community_centre|club", CategorySocial.AmenityPattern())
	assert.Equal(t, "cafe", Category("astrology").AmenityPattern())
}

func TestGeocode_CachesResults(t *testing.T) {
	var calls atomic.Int32
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Austin, TX, USA", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		io.WriteString(w, `[{"lat":"30.2672","lon":"-97.7431","display_name":"Austin"}]`)
	}))
	defer nominatim.Close()

	c := newTestClient(t, nominatim.URL, "")

	for i := 0; i < 3; i++ {
		coords, err := c.Geocode(context.Background(), "Austin, TX, USA")
		require.NoError(t, err)
		assert.InDelta(t, 30.2672, coords.Lat, 1e-9)
		assert.InDelta(t, -97.7431, coords.Lon, 1e-9)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestGeocode_ExpiredEntryRefetches(t *testing.T) {
	var calls atomic.Int32
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `[{"lat":"1","lon":"2"}]`)
	}))
	defer nominatim.Close()

	c := newTestClient(t, nominatim.URL, "")
	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Geocode(context.Background(), "Oslo")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = c.Geocode(context.Background(), "oslo")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGeocode_CollapsesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		io.WriteString(w, `[{"lat":"1","lon":"2"}]`)
	}))
	defer nominatim.Close()

	c := newTestClient(t, nominatim.URL, "")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Geocode(context.Background(), "Berlin")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
}

func TestGeocode_CanceledCallerDoesNotAbortSharedLookup(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		io.WriteString(w, `[{"lat":"52.52","lon":"13.40"}]`)
	}))
	defer nominatim.Close()

	c := newTestClient(t, nominatim.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Geocode(ctx, "Berlin")
		first <- err
	}()

	<-started
	cancel()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled caller kept waiting on the upstream")
	}

	close(release)
	coords, err := c.Geocode(context.Background(), "Berlin")
	require.NoError(t, err)
	assert.InDelta(t, 52.52, coords.Lat, 1e-9)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGeocode_NotFound(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer nominatim.Close()

	c := newTestClient(t, nominatim.URL, "")

	_, err := c.Geocode(context.Background(), "Atlantis")
	assert.True(t, errors.Is(err, ErrLocationNotFound))

	_, err = c.Geocode(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrLocationNotFound))
}

func TestGeocode_UpstreamError(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer nominatim.Close()

	c := newTestClient(t, nominatim.URL, "")
	_, err := c.Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLocationNotFound))
}

func TestGeocode_OversizedResponse(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat(" ", maxBody+1))
	}))
	defer nominatim.Close()

	c := newTestClient(t, nominatim.URL, "")
	_, err := c.Geocode(context.Background(), "Oslo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestNearby_ShapesPlaces(t *testing.T) {
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		q := string(body)
		assert.Contains(t, q, `node["amenity"~"fitness_centre|sports_centre"](around:5000,30.25,-97.75);`)
		assert.Contains(t, q, "out center 10;")

		io.WriteString(w, `{"elements":[
			{"type":"node","id":1,"tags":{"name":"Iron Temple","amenity":"fitness_centre","addr:housenumber":"12","addr:street":"Main St"}},
			{"type":"node","id":2,"tags":{"leisure":"sports_centre","addr:street":"Oak Ave"}},
			{"type":"way","id":3},
			{"type":"node","id":4,"tags":{"name":"D"}},
			{"type":"node","id":5,"tags":{"name":"E"}},
			{"type":"node","id":6,"tags":{"name":"F"}}
		]}`)
	}))
	defer overpass.Close()

	c := newTestClient(t, "", overpass.URL)
	places, err := c.Nearby(context.Background(), Coordinates{Lat: 30.25, Lon: -97.75}, CategoryGym)
	require.NoError(t, err)
	require.Len(t, places, 5)

	assert.Equal(t, Place{Name: "Iron Temple", Type: "fitness_centre", Address: "12 Main St"}, places[0])
	assert.Equal(t, Place{Name: "Local venue", Type: "sports_centre", Address: "Oak Ave"}, places[1])
	assert.Equal(t, Place{Name: "Local venue", Type: "gym", Address: "Address unavailable"}, places[2])
}

func TestOverpassQuery_UnknownCategoryUsesCafe(t *testing.T) {
	q := overpassQuery(Coordinates{Lat: 1, Lon: 2}, Category("other"))
	assert.True(t, strings.Contains(q, `way["amenity"~"cafe"](around:5000,1,2);`), q)
}
