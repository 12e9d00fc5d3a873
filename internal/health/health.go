// Package health serves the interview server's liveness and readiness
// probes.
//
//   - GET /healthz — liveness; a process that can answer HTTP is alive.
//   - GET /readyz  — readiness; 200 only while every registered [Checker]
//     (interview store, artifact output directory, ...) passes.
//
// The readiness body lists each check by name so a failing dependency can be
// read straight off the probe:
//
//	{"status":"fail","checks":[{"name":"store","status":"fail","error":"..."}]}
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// probeTimeout bounds each readiness check so one stuck dependency cannot
// hold the probe past the kubelet's own deadline.
const probeTimeout = 5 * time.Second

// Checker is one named readiness check.
type Checker struct {
	// Name labels the check in the response body (e.g. "store",
	// "output_dir").
	Name string

	// Check probes the dependency; nil means healthy. It must respect
	// context cancellation.
	Check func(ctx context.Context) error
}

// checkResult is one check's entry in the readiness body.
type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// report is the response body for both probe endpoints.
type report struct {
	Status string        `json:"status"`
	Checks []checkResult `json:"checks,omitempty"`
}

// Handler serves the probe endpoints. Safe for concurrent use; the checker
// list is fixed at construction.
type Handler struct {
	checkers []Checker
	log      *slog.Logger
}

// New creates a [Handler] that runs the given checkers, in order, on every
// /readyz request.
func New(checkers ...Checker) *Handler {
	return &Handler{
		checkers: append([]Checker(nil), checkers...),
		log:      slog.Default(),
	}
}

// Healthz always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, report{Status: "ok"})
}

// Readyz answers 200 when every checker passes and 503 otherwise, with a
// per-check breakdown either way.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	rep := report{Status: "ok", Checks: make([]checkResult, 0, len(h.checkers))}
	status := http.StatusOK

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := c.Check(ctx)
		cancel()

		res := checkResult{Name: c.Name, Status: "ok"}
		if err != nil {
			res.Status = "fail"
			res.Error = err.Error()
			rep.Status = "fail"
			status = http.StatusServiceUnavailable
			h.log.Warn("readiness check failed", "check", c.Name, "error", err)
		}
		rep.Checks = append(rep.Checks, res)
	}

	h.write(w, status, rep)
}

// Register mounts both probe routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func (h *Handler) write(w http.ResponseWriter, status int, rep report) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		h.log.Warn("encoding probe response failed", "error", err)
	}
}
