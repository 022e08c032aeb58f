package finder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealradar/dealradar/pkg/deal"
)

type stubGeocoder struct {
	coordinate deal.Coordinate
	err        error
	calls      int
}

func (g *stubGeocoder) Resolve(ctx context.Context, locationName string) (deal.Coordinate, error) {
	g.calls++
	if g.err != nil {
		return deal.Coordinate{}, g.err
	}
	return g.coordinate, nil
}

func TestFetchDealsDedupesAndFilters(t *testing.T) {
	deals := []deal.Deal{
		{ID: "1", Title: "stale", BusinessName: "Zudio Jayanagar", Location: deal.Location{Address: "5 Jayanagar 2nd Block"}},
		{ID: "2", Title: "elsewhere", BusinessName: "Cafe Nowhere", Location: deal.Location{Address: "7 Residency Road"}},
		{ID: "1", Title: "fresh", BusinessName: "Zudio Jayanagar", Location: deal.Location{Address: "5 Jayanagar 2nd Block"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/deals", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("min_discount"))
		assert.Equal(t, "Jayanagar", r.URL.Query().Get("location"))
		require.NoError(t, json.NewEncoder(w).Encode(deals))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubGeocoder{}, nil)

	criteria := deal.FilterCriteria{Category: deal.CategoryAll, RadiusMiles: 5, MinDiscount: 25, Currency: "USD"}
	got, err := client.FetchDeals(context.Background(), criteria, nil, "Jayanagar")
	require.NoError(t, err)

	// Duplicate ID 1 collapses to its last occurrence, and the area rules
	// drop the Residency Road deal.
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Title)
}

func TestFetchDealsRejectsInvalidCriteria(t *testing.T) {
	client := NewClient("http://unused", &stubGeocoder{}, nil)

	_, err := client.FetchDeals(context.Background(), deal.FilterCriteria{RadiusMiles: 7}, nil, "")
	assert.Error(t, err)
}

func TestFetchDealsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubGeocoder{}, nil)

	_, err := client.FetchDeals(context.Background(), deal.DefaultCriteria(), nil, "")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestTriggerScrapeGatewayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubGeocoder{}, nil)

	err := client.TriggerScrape(context.Background(), "Jayanagar", deal.Coordinate{Lat: 12.93, Lng: 77.58}, deal.CategoryAll)
	assert.ErrorIs(t, err, ErrScrapeTimeout)
}

func TestTriggerScrapeContextTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewClient(srv.URL, &stubGeocoder{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.TriggerScrape(ctx, "Jayanagar", deal.Coordinate{}, deal.CategoryAll)
	assert.ErrorIs(t, err, ErrScrapeTimeout)
}

func TestSearchAbortsOnGeocodingFailure(t *testing.T) {
	var serverCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverCalls++
	}))
	defer srv.Close()

	geocoder := &stubGeocoder{err: ErrLocationNotFound}
	client := NewClient(srv.URL, geocoder, nil)

	_, err := client.Search(context.Background(), "Atlantis", deal.DefaultCriteria())

	assert.ErrorIs(t, err, ErrLocationNotFound)
	assert.Equal(t, 1, geocoder.calls)
	assert.Zero(t, serverCalls, "no scrape or fetch call may be issued after a geocoding failure")
}

func TestSearchFullPipeline(t *testing.T) {
	deals := []deal.Deal{
		{ID: "1", BusinessName: "Lifestyle Brigade Road", Location: deal.Location{Address: "12 Brigade Road"}},
	}

	var scraped bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/scrape-deals":
			scraped = true
			assert.Equal(t, "Brigade Road", r.URL.Query().Get("location"))
			w.WriteHeader(http.StatusOK)
		case "/api/deals":
			require.NoError(t, json.NewEncoder(w).Encode(deals))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	geocoder := &stubGeocoder{coordinate: deal.Coordinate{Lat: 12.97, Lng: 77.61}}
	client := NewClient(srv.URL, geocoder, nil)

	got, err := client.Search(context.Background(), "Brigade Road", deal.DefaultCriteria())
	require.NoError(t, err)
	assert.True(t, scraped, "scrape must run before the fetch")
	require.Len(t, got, 1)
	assert.Equal(t, "Lifestyle Brigade Road", got[0].BusinessName)
}

func TestRegisterSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/notifications/subscribe", r.URL.Path)
		var sub Subscription
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.Equal(t, "https://push.example.com/abc", sub.Endpoint)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubGeocoder{}, nil)

	err := client.RegisterSubscription(context.Background(), &Subscription{
		Endpoint: "https://push.example.com/abc",
		Keys:     SubscriptionKeys{P256dh: "key", Auth: "auth"},
	})
	assert.NoError(t, err)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(context.DeadlineExceeded))
	assert.False(t, isTimeout(errors.New("plain error")))
}
