package handler

import (
	"net/http"
	"time"

	"github.com/dtroode/eventhub-server/internal/api/http/response"
	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/probe"
)

type checkResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readinessResponse struct {
	Ready  bool          `json:"ready"`
	Checks []checkResult `json:"checks"`
}

// Health serves liveness and readiness probes.
type Health struct {
	checks  probe.Checks
	timeout time.Duration
	logger  *logger.Logger
}

func NewHealth(checks probe.Checks, timeout time.Duration, logger *logger.Logger) *Health {
	return &Health{checks: checks, timeout: timeout, logger: logger}
}

func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Ready reports 503 when any backing store is unreachable.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	results := h.checks.Run(r.Context(), h.timeout)

	resp := readinessResponse{Ready: probe.Healthy(results), Checks: make([]checkResult, 0, len(results))}
	for _, res := range results {
		cr := checkResult{Name: res.Name, OK: res.Err == nil}
		if res.Err != nil {
			cr.Error = res.Err.Error()
			h.logger.Warn("Health handler: check failed", "check", res.Name, "error", cr.Error)
		}
		resp.Checks = append(resp.Checks, cr)
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, resp)
}
