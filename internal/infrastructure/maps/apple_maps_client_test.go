package maps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripCompare-App/internal/domain/model"
)

type fakeMapsAPI struct {
	tokenCalls atomic.Int32
	directions http.HandlerFunc
	search     http.HandlerFunc
}

func (f *fakeMapsAPI) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenEndpoint, func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer dev-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Not Authorized"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"accessToken":"access-123","expiresInSeconds":1800}`))
	})
	mux.HandleFunc(directionsEndpoint, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
		f.directions(w, r)
	})
	mux.HandleFunc(autocompleteEndpoint, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
		f.search(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, api *fakeMapsAPI) *AppleMapsClient {
	srv := api.server(t)
	client, err := NewAppleMapsClient(context.Background(), ClientConfig{BaseURL: srv.URL, Timeout: 2 * time.Second},
		NewStaticTokenSigner("dev-token"), nil)
	require.NoError(t, err)
	return client
}

type routeOutcome struct {
	err  error
	data *model.DirectionsResponse
}

func route(client *AppleMapsClient, req model.RouteRequest) routeOutcome {
	ch := make(chan routeOutcome, 1)
	client.Route(context.Background(), req, func(err error, data *model.DirectionsResponse) {
		ch <- routeOutcome{err: err, data: data}
	})
	return <-ch
}

func TestAppleMapsClient_Directions(t *testing.T) {
	api := &fakeMapsAPI{directions: func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "49.28,-123.11", q.Get("origin"))
		assert.Equal(t, "49.25,-123.1", q.Get("destination"))
		assert.Equal(t, "Automobile", q.Get("transportType"))
		assert.Equal(t, "2026-10-18T16:30:00Z", q.Get("departureDate"))
		_, _ = w.Write([]byte(`{"routes":[{"name":"Main St","distanceMeters":5210,"durationSeconds":840,"transportType":"Automobile"}],"steps":[]}`))
	}}
	client := newTestClient(t, api)

	departure := time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("PDT", -7*3600))
	out := route(client, model.NewRouteRequest(
		model.LatLng{Lat: 49.28, Lng: -123.11}, model.LatLng{Lat: 49.25, Lng: -123.10}, departure))

	require.NoError(t, out.err)
	require.NotNil(t, out.data)
	require.Len(t, out.data.Routes, 1)
	assert.Equal(t, 5210, out.data.Routes[0].DistanceMeters)
	assert.Equal(t, 840, out.data.Routes[0].DurationSeconds)
	assert.JSONEq(t, `{"routes":[{"name":"Main St","distanceMeters":5210,"durationSeconds":840,"transportType":"Automobile"}],"steps":[]}`, string(out.data.Raw))
	assert.Equal(t, int32(1), api.tokenCalls.Load())
}

func TestAppleMapsClient_DirectionsEmptyBody(t *testing.T) {
	api := &fakeMapsAPI{directions: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}}
	client := newTestClient(t, api)

	out := route(client, model.NewRouteRequest(model.LatLng{}, model.LatLng{Lat: 1, Lng: 1}, time.Time{}))

	assert.NoError(t, out.err)
	assert.Nil(t, out.data)
}

func TestAppleMapsClient_DirectionsAPIError(t *testing.T) {
	api := &fakeMapsAPI{directions: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"origin is not routable"}}`))
	}}
	client := newTestClient(t, api)

	out := route(client, model.NewRouteRequest(model.LatLng{}, model.LatLng{Lat: 1, Lng: 1}, time.Time{}))

	require.Error(t, out.err)
	assert.ErrorIs(t, out.err, ErrUnexpectedStatus)
	var apiErr *APIError
	require.True(t, errors.As(out.err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "origin is not routable", apiErr.Message)
}

func TestAppleMapsClient_Autocomplete(t *testing.T) {
	api := &fakeMapsAPI{search: func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "granville", q.Get("q"))
		assert.Equal(t, "49.28091630159075,-123.11395918331695", q.Get("searchLocation"))
		assert.Equal(t, "US,CA", q.Get("limitToCountries"))
		assert.Equal(t, "Poi,Address", q.Get("resultTypeFilter"))
		_, _ = w.Write([]byte(`{"results":[{"completionUrl":"/v1/search?q=Granville%20Island","displayLines":["Granville Island","Vancouver, BC"],"location":{"latitude":49.2712,"longitude":-123.1340}}]}`))
	}}
	client := newTestClient(t, api)

	ch := make(chan *model.AutocompleteResponse, 1)
	id := client.Autocomplete(context.Background(), model.SearchRequest{
		Query:                   "granville",
		BiasCoordinate:          model.LatLng{Lat: 49.28091630159075, Lng: -123.11395918331695},
		LimitToCountries:        []string{"us", "ca"},
		IncludePointsOfInterest: true,
		IncludeAddresses:        true,
	}, func(err error, response *model.AutocompleteResponse) {
		assert.NoError(t, err)
		ch <- response
	})

	assert.NotEmpty(t, id)
	resp := <-ch
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []string{"Granville Island", "Vancouver, BC"}, resp.Results[0].DisplayLines)
	assert.Equal(t, 49.2712, resp.Results[0].Location.Latitude)
}

func TestAppleMapsClient_CancelAbortsRequest(t *testing.T) {
	started := make(chan struct{})
	api := &fakeMapsAPI{search: func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}}
	client := newTestClient(t, api)

	ch := make(chan error, 1)
	id := client.Autocomplete(context.Background(), model.SearchRequest{Query: "slow"}, func(err error, response *model.AutocompleteResponse) {
		assert.Nil(t, response)
		ch <- err
	})

	<-started
	client.Cancel(id)
	client.Cancel(id)

	select {
	case err := <-ch:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request did not settle")
	}
}

func TestAppleMapsClient_TokenRejected(t *testing.T) {
	api := &fakeMapsAPI{}
	srv := api.server(t)

	_, err := NewAppleMapsClient(context.Background(), ClientConfig{BaseURL: srv.URL}, NewStaticTokenSigner("wrong"), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestSessionLoader_InitializesOnce(t *testing.T) {
	api := &fakeMapsAPI{search: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}}
	srv := api.server(t)
	load := NewSessionLoader(ClientConfig{BaseURL: srv.URL}, NewStaticTokenSigner("dev-token"), nil, nil)

	first, err := load(context.Background())
	require.NoError(t, err)
	second, err := load(context.Background())
	require.NoError(t, err)

	assert.Same(t, first.(*AppleMapsClient), second.(*AppleMapsClient))
	assert.Equal(t, int32(1), api.tokenCalls.Load())
}

func TestFormatLatLng_NoExponent(t *testing.T) {
	assert.Equal(t, "49.28,-123.1", formatLatLng(model.LatLng{Lat: 49.28, Lng: -123.10}))
	assert.Equal(t, "0.0000001,-0.0000025", formatLatLng(model.LatLng{Lat: 1e-7, Lng: -2.5e-6}))
	assert.Equal(t, "0,0", formatLatLng(model.LatLng{}))
}
