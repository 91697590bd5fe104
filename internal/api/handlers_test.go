package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daynav/internal/config"
	"daynav/internal/engine"
	"daynav/internal/geocode"
	"daynav/internal/model"
	"daynav/internal/store"
	"daynav/internal/travel"
	"daynav/internal/webhooks"
)

func testServer() *Server {
	est := travel.HaversineEstimator{}
	mem := store.NewMemory()
	return &Server{
		Cfg:      config.Config{},
		Store:    mem,
		Engine:   engine.New(engine.Config{}, travel.EstimateSource{E: est}, est),
		Pub:      webhooks.NewPublisher(mem),
		Broker:   NewBroker(),
		Geocoder: geocode.NewClient("http://127.0.0.1:1", "test"),
	}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := testServer()

	rec := doJSON(t, s.SettingsHandler, http.MethodGet, "/v1/settings", nil)
	if rec.Code != 200 {
		t.Fatalf("GET settings: %d %s", rec.Code, rec.Body.String())
	}
	var defaults model.Settings
	decodeInto(t, rec, &defaults)
	if defaults.WorkStart != "09:00" || defaults.WorkEnd != "18:00" {
		t.Fatalf("expected default work hours, got %+v", defaults)
	}

	in := model.Settings{HomeName: "Home", HomeLocation: &model.GeoPoint{Lat: 30.27, Lng: -97.74}, WorkStart: "08:00"}
	rec = doJSON(t, s.SettingsHandler, http.MethodPut, "/v1/settings", in)
	if rec.Code != 200 {
		t.Fatalf("PUT settings: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.SettingsHandler, http.MethodPut, "/v1/settings", model.Settings{WorkStart: "25:99"})
	if rec.Code != 400 {
		t.Fatalf("bad clock should 400, got %d", rec.Code)
	}
}

func TestErrandLifecycle(t *testing.T) {
	s := testServer()

	rec := doJSON(t, s.ErrandsHandler, http.MethodPost, "/v1/errands", model.ErrandIn{
		Title:    "Pharmacy",
		Location: &model.GeoPoint{Lat: 30.28, Lng: -97.74},
		Window:   &model.TimeWindow{Open: "09:00", Close: "17:00"},
	})
	if rec.Code != 201 {
		t.Fatalf("create errand: %d %s", rec.Code, rec.Body.String())
	}
	var created model.ErrandOut
	decodeInto(t, rec, &created)

	rec = doJSON(t, s.ErrandsHandler, http.MethodPost, "/v1/errands", model.ErrandIn{Title: "No location"})
	if rec.Code != 400 {
		t.Fatalf("missing location should 400, got %d", rec.Code)
	}

	rec = doJSON(t, s.ErrandsHandler, http.MethodGet, "/v1/errands", nil)
	var list struct {
		Items []model.ErrandOut `json:"items"`
	}
	decodeInto(t, rec, &list)
	if len(list.Items) != 1 || list.Items[0].ID != created.ID {
		t.Fatalf("list mismatch: %+v", list.Items)
	}

	rec = doJSON(t, s.ErrandByIDHandler, http.MethodDelete, "/v1/errands/"+created.ID, nil)
	if rec.Code != 204 {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, s.ErrandByIDHandler, http.MethodGet, "/v1/errands/"+created.ID, nil)
	if rec.Code != 404 {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestPlanEndToEnd(t *testing.T) {
	s := testServer()
	doJSON(t, s.SettingsHandler, http.MethodPut, "/v1/settings", model.Settings{
		HomeLocation: &model.GeoPoint{Lat: 30.27, Lng: -97.74},
	})
	for _, e := range []model.ErrandIn{
		{Title: "DMV appointment", Location: &model.GeoPoint{Lat: 30.32, Lng: -97.71}, Window: &model.TimeWindow{Open: "09:00", Close: "16:00"}},
		{Title: "Post office", Location: &model.GeoPoint{Lat: 30.25, Lng: -97.76}},
	} {
		if rec := doJSON(t, s.ErrandsHandler, http.MethodPost, "/v1/errands", e); rec.Code != 201 {
			t.Fatalf("create errand: %d %s", rec.Code, rec.Body.String())
		}
	}

	events := s.Broker.Subscribe(TopicAll)

	rec := doJSON(t, s.PlanHandler, http.MethodPost, "/v1/plan", model.PlanRequest{Date: "2026-08-26"})
	if rec.Code != 200 {
		t.Fatalf("plan: %d %s", rec.Code, rec.Body.String())
	}
	var plan model.Plan
	decodeInto(t, rec, &plan)
	if !plan.Feasible || len(plan.Stops) != 2 {
		t.Fatalf("expected feasible 2-stop plan: %+v", plan)
	}
	if plan.Method != "exact" || !plan.Estimated {
		t.Fatalf("expected exact estimated plan, got method=%s estimated=%t", plan.Method, plan.Estimated)
	}
	if plan.Stops[0].Title == "" {
		t.Fatalf("stop titles should be filled: %+v", plan.Stops[0])
	}

	select {
	case evt := <-events:
		if evt.Type != webhooks.EventPlanComputed {
			t.Fatalf("event type: %s", evt.Type)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no plan event published")
	}

	// stored and retrievable
	rec = doJSON(t, s.PlanByIDHandler, http.MethodGet, "/v1/plans/"+plan.ID, nil)
	if rec.Code != 200 {
		t.Fatalf("get plan: %d", rec.Code)
	}

	rec = doJSON(t, s.PlanByIDHandler, http.MethodGet, "/v1/plans/"+plan.ID+"/ics", nil)
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Fatalf("ics export: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = doJSON(t, s.PlanByIDHandler, http.MethodGet, "/v1/plans/"+plan.ID+"/maps", nil)
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "google.com/maps") {
		t.Fatalf("maps link: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.PlanByIDHandler, http.MethodGet, "/v1/plans/"+plan.ID+"/checklist", nil)
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "Wallet") {
		t.Fatalf("checklist: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.PlansIndexHandler, http.MethodGet, "/v1/plans?date=2026-08-26", nil)
	var index struct {
		Items []model.Plan `json:"items"`
	}
	decodeInto(t, rec, &index)
	if len(index.Items) != 1 || index.Items[0].ID != plan.ID {
		t.Fatalf("plan index mismatch: %+v", index.Items)
	}
}

func TestPlanRequiresHome(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s.PlanHandler, http.MethodPost, "/v1/plan", model.PlanRequest{
		Date:    "2026-08-26",
		Errands: []model.ErrandIn{{Title: "x", Location: &model.GeoPoint{Lat: 1, Lng: 1}}},
	})
	if rec.Code != 422 {
		t.Fatalf("expected 422 without home, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPlanValidationErrors(t *testing.T) {
	s := testServer()
	doJSON(t, s.SettingsHandler, http.MethodPut, "/v1/settings", model.Settings{HomeLocation: &model.GeoPoint{Lat: 30, Lng: -97}})

	// missing date, wrong date format, bad clock, inverted window
	cases := []model.PlanRequest{
		{},
		{Date: "26-08-2026"},
		{Date: "2026-08-26", Leave: "9am"},
		{Date: "2026-08-26", Errands: []model.ErrandIn{{Title: "x", Location: &model.GeoPoint{Lat: 1, Lng: 1}, Window: &model.TimeWindow{Open: "17:00", Close: "09:00"}}}},
	}
	for i, req := range cases {
		if rec := doJSON(t, s.PlanHandler, http.MethodPost, "/v1/plan", req); rec.Code != 400 {
			t.Fatalf("case %d: expected 400, got %d %s", i, rec.Code, rec.Body.String())
		}
	}

	// planning with nothing stored and nothing inline
	if rec := doJSON(t, s.PlanHandler, http.MethodPost, "/v1/plan", model.PlanRequest{Date: "2026-08-26"}); rec.Code != 422 {
		t.Fatalf("expected 422 with no errands, got %d", rec.Code)
	}
}

func TestPlanInvertedDayWindow(t *testing.T) {
	s := testServer()
	doJSON(t, s.SettingsHandler, http.MethodPut, "/v1/settings", model.Settings{HomeLocation: &model.GeoPoint{Lat: 30, Lng: -97}})

	rec := doJSON(t, s.PlanHandler, http.MethodPost, "/v1/plan", model.PlanRequest{
		Date:     "2026-08-26",
		Leave:    "18:00",
		ReturnBy: "09:00",
		Errands:  []model.ErrandIn{{Title: "x", Location: &model.GeoPoint{Lat: 30.1, Lng: -97.1}}},
	})
	if rec.Code != 422 {
		t.Fatalf("leave after returnBy should be 422, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPlanInfeasibleStillReturned(t *testing.T) {
	s := testServer()
	doJSON(t, s.SettingsHandler, http.MethodPut, "/v1/settings", model.Settings{HomeLocation: &model.GeoPoint{Lat: 30.27, Lng: -97.74}})

	// window closes before the day starts
	rec := doJSON(t, s.PlanHandler, http.MethodPost, "/v1/plan", model.PlanRequest{
		Date: "2026-08-26",
		Errands: []model.ErrandIn{{
			Title:    "Too early",
			Location: &model.GeoPoint{Lat: 30.30, Lng: -97.70},
			Window:   &model.TimeWindow{Open: "06:00", Close: "07:00"},
		}},
	})
	if rec.Code != 200 {
		t.Fatalf("infeasible plan should still be 200, got %d %s", rec.Code, rec.Body.String())
	}
	var plan model.Plan
	decodeInto(t, rec, &plan)
	if plan.Feasible || plan.Reason != "arrived_after_close" {
		t.Fatalf("expected arrived_after_close, got %+v", plan)
	}
	if len(plan.Stops) != 1 {
		t.Fatalf("failed stop must stay in the timeline: %+v", plan.Stops)
	}
}

func TestSubscriptionsHandlerValidation(t *testing.T) {
	s := testServer()

	rec := doJSON(t, s.SubscriptionsHandler, http.MethodPost, "/v1/subscriptions", model.SubscriptionRequest{URL: "https://x", Events: []string{"bogus.event"}})
	if rec.Code != 400 {
		t.Fatalf("unknown event should 400, got %d", rec.Code)
	}

	rec = doJSON(t, s.SubscriptionsHandler, http.MethodPost, "/v1/subscriptions", model.SubscriptionRequest{URL: "https://x", Events: []string{"plan.computed"}, Secret: "shh"})
	if rec.Code != 201 {
		t.Fatalf("create subscription: %d %s", rec.Code, rec.Body.String())
	}
	var sub model.Subscription
	decodeInto(t, rec, &sub)
	if sub.Secret != "" {
		t.Fatalf("secret must not be echoed: %+v", sub)
	}

	rec = doJSON(t, s.SubscriptionByIDHandler, http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil)
	if rec.Code != 204 {
		t.Fatalf("delete subscription: %d", rec.Code)
	}
}

func TestGeocodeHandlerRequiresQuery(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s.GeocodeHandler, http.MethodGet, "/v1/geocode", nil)
	if rec.Code != 400 {
		t.Fatalf("expected 400 without q, got %d", rec.Code)
	}
}
