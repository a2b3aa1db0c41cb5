package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/suidash/backend/pkg/types"
)

// maxAddressesPerRequest bounds one enrichment request; the executor chunks
// below this, the bound just keeps a single request from monopolizing the
// oracle.
const maxAddressesPerRequest = 50

// EnrichmentAPI is the service surface the HTTP layer consumes. Satisfied by
// both enrichment.Service and enrichment.CachedService.
type EnrichmentAPI interface {
	GetAddressesEnriched(ctx context.Context, addresses []string, includeBalance bool) ([]types.Enriched, error)
	GetBalance(ctx context.Context, address string) (string, error)
	GetTierInfoBatch(ctx context.Context, addresses []string) (map[string]types.TierInfo, error)
	Invalidate(address string, kind types.DataKind) error
}

// EnrichHandler serves the dashboard API routes.
type EnrichHandler struct {
	svc    EnrichmentAPI
	logger *zap.Logger
}

// NewEnrichHandler creates the API handler.
func NewEnrichHandler(svc EnrichmentAPI, logger *zap.Logger) *EnrichHandler {
	return &EnrichHandler{svc: svc, logger: logger}
}

// HandleAddresses serves GET /api/v1/addresses?addrs=a,b,c&balance=true.
func (h *EnrichHandler) HandleAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, ok := splitAddrs(r.URL.Query().Get("addrs"))
	if !ok {
		writeError(w, http.StatusBadRequest, "addrs parameter required (comma-separated, max 50)")
		return
	}

	includeBalance := r.URL.Query().Get("balance") != "false"

	enriched, err := h.svc.GetAddressesEnriched(r.Context(), addrs, includeBalance)
	if err != nil {
		h.logger.Error("addresses-handler-failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "enrichment failed")
		return
	}

	writeJSON(w, http.StatusOK, enriched)
}

// HandleBalance serves GET /api/v1/balance/{address}.
func (h *EnrichHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	balance, err := h.svc.GetBalance(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"address": types.NormalizeAddress(address),
		"balance": balance,
	})
}

// HandleTiers serves GET /api/v1/tiers?addrs=a,b,c.
func (h *EnrichHandler) HandleTiers(w http.ResponseWriter, r *http.Request) {
	addrs, ok := splitAddrs(r.URL.Query().Get("addrs"))
	if !ok {
		writeError(w, http.StatusBadRequest, "addrs parameter required (comma-separated, max 50)")
		return
	}

	tiers, err := h.svc.GetTierInfoBatch(r.Context(), addrs)
	if err != nil {
		h.logger.Error("tiers-handler-failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "tier lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, tiers)
}

type invalidateRequest struct {
	Address string         `json:"address"`
	Kind    types.DataKind `json:"kind"`
}

// HandleInvalidate serves POST /api/v1/invalidate. Empty fields widen the
// scope: no address means the whole kind, no kind means every kind.
func (h *EnrichHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Invalidate(req.Address, req.Kind); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func splitAddrs(param string) ([]string, bool) {
	if strings.TrimSpace(param) == "" {
		return nil, false
	}

	parts := strings.Split(param, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			addrs = append(addrs, trimmed)
		}
	}

	if len(addrs) == 0 || len(addrs) > maxAddressesPerRequest {
		return nil, false
	}
	return addrs, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
