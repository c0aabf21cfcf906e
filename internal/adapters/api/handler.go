package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zonekit/dnshost/internal/core/domain"
	"github.com/zonekit/dnshost/internal/core/ports"
)

// APIHandler handles HTTP requests for sessions, identity and domain
// management.
type APIHandler struct {
	auth    ports.AuthService
	domains ports.DomainService
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(auth ports.AuthService, domains ports.DomainService) *APIHandler {
	return &APIHandler{auth: auth, domains: domains}
}

// RegisterRoutes registers the API routes with the provided ServeMux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public routes
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /metrics", h.Metrics)

	// Middleware
	auth := AuthMiddleware(h.auth)
	userRead := RequirePermission(domain.PermUserRead)
	domainsRead := RequirePermission(domain.PermDomainsRead)
	domainsWrite := RequirePermission(domain.PermDomainsWrite)

	// Protected routes (scoped by the resolved access map)
	mux.Handle("POST /session", auth(http.HandlerFunc(h.CreateSession)))
	mux.Handle("DELETE /session", auth(http.HandlerFunc(h.DeleteSession)))
	mux.Handle("GET /user", auth(userRead(http.HandlerFunc(h.GetUser))))
	mux.Handle("GET /domains", auth(domainsRead(http.HandlerFunc(h.ListDomains))))
	mux.Handle("GET /domains/{name}", auth(domainsRead(http.HandlerFunc(h.GetDomain))))
	mux.Handle("GET /domains/{name}/records", auth(domainsRead(http.HandlerFunc(h.ListRecords))))
	mux.Handle("POST /domains/{name}/records", auth(domainsWrite(http.HandlerFunc(h.CreateRecord))))
	mux.Handle("DELETE /domains/{name}/records/{id}", auth(domainsWrite(http.HandlerFunc(h.DeleteRecord))))
}

// Metrics handles Prometheus metrics scraping requests.
func (h *APIHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)
	checks := h.domains.HealthCheck(r.Context())

	for name, checkErr := range checks {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"details": details,
	})
}

// userInfo is the identity echo returned by GET /user and POST /session.
type userInfo struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	RealName      string           `json:"real_name"`
	Access        domain.AccessMap `json:"access"`
	Impersonator  string           `json:"impersonator,omitempty"`
	Impersonating string           `json:"impersonating,omitempty"`
	DeviceID      string           `json:"device_id,omitempty"`
	DeviceName    string           `json:"device_name,omitempty"`
}

func buildUserInfo(result *domain.AuthResult) userInfo {
	info := userInfo{
		ID:       result.User.ID,
		Email:    result.User.Email,
		RealName: result.User.RealName,
		Access:   result.Access,
	}
	if result.Impersonator != nil {
		info.Impersonator = result.Impersonator.Email
		info.Impersonating = result.User.Email
	}
	if result.Device != nil {
		info.DeviceID = result.Device.DeviceID
		info.DeviceName = result.Device.Description
	}
	return info
}

// GetUser echoes the acting identity and its computed access map.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	result := AuthFromContext(r.Context())
	writeJSON(w, http.StatusOK, buildUserInfo(result))
}

// CreateSession exchanges any non-session credential for an opaque session ID.
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	result := AuthFromContext(r.Context())
	if !result.Authenticated() {
		WriteAuthFailure(w, result)
		return
	}

	session, err := h.auth.IssueSession(r.Context(), result)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"user":       buildUserInfo(result),
	})
}

// DeleteSession invalidates the presented session.
func (h *APIHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		WriteError(w, domain.ErrAuthenticationRequired)
		return
	}
	if err := h.auth.EndSession(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	result := AuthFromContext(r.Context())
	domains, err := h.domains.ListDomains(r.Context(), result)
	if err != nil {
		WriteError(w, err)
		return
	}
	if domains == nil {
		domains = []domain.Domain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

func (h *APIHandler) GetDomain(w http.ResponseWriter, r *http.Request) {
	result := AuthFromContext(r.Context())
	dom, err := h.domains.GetDomain(r.Context(), result, r.PathValue("name"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dom)
}

func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	result := AuthFromContext(r.Context())
	records, err := h.domains.ListRecords(r.Context(), result, r.PathValue("name"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var record domain.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if record.Name == "" {
		record.Name = r.PathValue("name")
	}
	if err := domain.ValidateDomainName(record.Name); err != nil {
		http.Error(w, "Invalid record name: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := AuthFromContext(r.Context())
	if err := h.domains.CreateRecord(r.Context(), result, r.PathValue("name"), &record); err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *APIHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	result := AuthFromContext(r.Context())
	if err := h.domains.DeleteRecord(r.Context(), result, r.PathValue("name"), r.PathValue("id")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
