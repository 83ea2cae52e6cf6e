package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeocodeHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "12 MG Road, Kochi" {
			t.Fatalf("unexpected query %q", got)
		}
		w.Write([]byte(`[{"lat":"9.9312","lon":"76.2673","display_name":"MG Road, Kochi"}]`))
	}))
	defer srv.Close()

	loc, err := NewClient(srv.URL).Geocode(context.Background(), "12 MG Road, Kochi")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if loc == nil || loc.Lat != 9.9312 || loc.Lng != 76.2673 || loc.DisplayName != "MG Road, Kochi" {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestGeocodeNotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	loc, err := NewClient(srv.URL).Geocode(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("no results must not be an error, got %v", err)
	}
	if loc != nil {
		t.Fatalf("expected nil location, got %+v", loc)
	}
}

func TestGeocodeEmptyAddress(t *testing.T) {
	loc, err := NewClient("http://unused").Geocode(context.Background(), "   ")
	if err != nil || loc != nil {
		t.Fatalf("blank address should short-circuit, got %+v %v", loc, err)
	}
}

func TestGeocodeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Geocode(context.Background(), "12 MG Road"); err == nil {
		t.Fatal("expected an error on upstream failure")
	}
}
