package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"daynav/internal/buildinfo"
	"daynav/internal/export"
	"daynav/internal/model"
	"daynav/internal/prep"
	"daynav/internal/store"
)

// SettingsHandler handles GET/PUT /v1/settings
func (s *Server) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.Store.GetSettings(r.Context())
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, model.Settings{WorkStart: "09:00", WorkEnd: "18:00"})
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get settings failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var in model.Settings
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		for _, clock := range []string{in.WorkStart, in.WorkEnd} {
			if clock == "" {
				continue
			}
			if _, _, err := model.ParseClock(clock); err != nil {
				writeProblem(w, http.StatusBadRequest, "Validation failed", "invalid time of day: "+clock, r.URL.Path)
				return
			}
		}
		saved, err := s.Store.SaveSettings(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save settings failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ErrandsHandler handles POST/GET /v1/errands
func (s *Server) ErrandsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.ErrandIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateErrand(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Validation failed", err.Error(), r.URL.Path)
			return
		}
		out, err := s.Store.CreateErrand(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create errand failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	case http.MethodGet:
		items, err := s.Store.ListErrands(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List errands failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ErrandByIDHandler handles GET/DELETE /v1/errands/{id}
func (s *Server) ErrandByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/errands/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not found", "", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodGet:
		e, err := s.Store.GetErrand(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Errand not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get errand failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, e)
	case http.MethodDelete:
		err := s.Store.DeleteErrand(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Errand not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete errand failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// PlanHandler handles POST /v1/plan
func (s *Server) PlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Validation failed", err.Error(), r.URL.Path)
		return
	}
	plan, err := s.computePlan(r.Context(), req)
	if err != nil {
		var pe *planError
		if errors.As(err, &pe) {
			writeProblem(w, pe.status, pe.title, pe.detail, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Planning failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// PlansIndexHandler handles GET /v1/plans
func (s *Server) PlansIndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, err := s.Store.ListPlans(r.Context(), r.URL.Query().Get("date"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// PlanByIDHandler handles GET /v1/plans/{id} and its subresources
// /ics, /maps and /checklist.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	id, sub := rest, ""
	if i := strings.Index(rest, "/"); i >= 0 {
		id, sub = rest[:i], rest[i+1:]
	}
	plan, err := s.Store.GetPlan(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
		return
	}
	switch sub {
	case "":
		writeJSON(w, http.StatusOK, plan)
	case "ics":
		checklists := map[string][]string{}
		for _, st := range plan.Stops {
			checklists[st.StopID] = prep.ForErrand(model.ErrandOut{Title: st.Title})
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=plan-%s.ics", plan.Date))
		_, _ = w.Write(export.RenderICS(plan, checklists))
	case "maps":
		home, perr := s.homeLocation(r)
		if perr != nil {
			writeProblem(w, perr.status, perr.title, perr.detail, r.URL.Path)
			return
		}
		link := export.MapsURL(home, plan)
		if link == "" {
			writeProblem(w, http.StatusUnprocessableEntity, "No stops", "plan has no stops to map", r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"url": link})
	case "checklist":
		stops := []prep.StopChecklist{}
		for _, st := range plan.Stops {
			stops = append(stops, prep.StopChecklist{
				ErrandID: st.StopID,
				Title:    st.Title,
				Items:    prep.ForErrand(model.ErrandOut{Title: st.Title}),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"stops": stops})
	default:
		writeProblem(w, http.StatusNotFound, "Not found", "", r.URL.Path)
	}
}

func (s *Server) homeLocation(r *http.Request) (model.GeoPoint, *planError) {
	settings, err := s.Store.GetSettings(r.Context())
	if errors.Is(err, store.ErrNotFound) || (err == nil && settings.HomeLocation == nil) {
		return model.GeoPoint{}, &planError{status: http.StatusUnprocessableEntity, title: "Home not configured", detail: "set homeLocation in settings first"}
	}
	if err != nil {
		return model.GeoPoint{}, &planError{status: http.StatusInternalServerError, title: "Get settings failed", detail: err.Error()}
	}
	return *settings.HomeLocation, nil
}

// ChecklistHandler handles GET /v1/checklist for the stored errand list.
func (s *Server) ChecklistHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	errands, err := s.Store.ListErrands(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List errands failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stops":        prep.ByStop(errands),
		"consolidated": prep.Consolidated(errands),
	})
}

// GeocodeHandler handles GET /v1/geocode?q=
func (s *Server) GeocodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Validation failed", "q is required", r.URL.Path)
		return
	}
	hits, err := s.Geocoder.Search(r.Context(), q, 5)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Geocoding failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": hits})
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateSubscription(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Validation failed", err.Error(), r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		sub.Secret = ""
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		subs, err := s.Store.ListSubscriptions(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		for i := range subs {
			subs[i].Secret = ""
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": subs})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	err := s.Store.DeleteSubscription(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlanEventsStreamHandler handles GET /v1/plans/events/stream (SSE).
// Filter to one date with ?date=YYYY-MM-DD.
func (s *Server) PlanEventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	topic := r.URL.Query().Get("date")
	if topic == "" {
		topic = TopicAll
	}
	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		}
	}
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler handles GET /readyz
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.Store.(*store.Postgres); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
