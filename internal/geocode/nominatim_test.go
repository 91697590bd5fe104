package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearchParsesHits(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if q := r.URL.Query().Get("q"); q != "central market austin" {
			t.Errorf("unexpected query %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"display_name":"Central Market, Austin","lat":"30.3072","lon":"-97.7392"},{"display_name":"bad","lat":"x","lon":"y"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "daynav-test/1.0")
	hits, err := c.Search(context.Background(), "central market austin", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotUA != "daynav-test/1.0" {
		t.Fatalf("User-Agent not sent: %q", gotUA)
	}
	if len(hits) != 1 {
		t.Fatalf("unparseable hit should be dropped, got %d hits", len(hits))
	}
	if hits[0].Location.Lat != 30.3072 || hits[0].Location.Lng != -97.7392 {
		t.Fatalf("bad coordinates: %+v", hits[0].Location)
	}
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := c.Search(context.Background(), "q", 1); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	// second call must wait out the one-per-second limit
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Fatalf("expected limiter to delay second call, elapsed %v", elapsed)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Search(context.Background(), "q", 1); err == nil {
		t.Fatalf("expected error on 503")
	}
}
