package versioning

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// CreateVersionRequest is the API request body for version creation.
type CreateVersionRequest struct {
	Definition      Definition    `json:"definition"`
	Description     string        `json:"description,omitempty"`
	Status          VersionStatus `json:"status,omitempty"`
	Changelog       string        `json:"changelog,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	CreatedBy       string        `json:"createdBy"`
	ParentVersionID string        `json:"parentVersionId,omitempty"`
}

// DeployRequest is the API request body for a deployment.
type DeployRequest struct {
	DeployedBy      string `json:"deployedBy"`
	DeploymentNotes string `json:"deploymentNotes,omitempty"`
	SkipValidation  bool   `json:"skipValidation,omitempty"`
	DryRun          bool   `json:"dryRun,omitempty"`
}

// RollbackRequest is the API request body for a rollback.
type RollbackRequest struct {
	RolledBackBy  string `json:"rolledBackBy"`
	Reason        string `json:"reason"`
	ForceRollback bool   `json:"forceRollback,omitempty"`
}

// errorResponse is the API error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// createVersionHandler returns a handler that creates a new workflow version.
// POST /workflows/{workflowId}/versions
func createVersionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")

		var req CreateVersionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "")
			return
		}

		version, err := svc.CreateVersion(r.Context(), workflowID, req.Definition, CreateVersionOptions{
			Description:     req.Description,
			Status:          req.Status,
			Changelog:       req.Changelog,
			Tags:            req.Tags,
			CreatedBy:       req.CreatedBy,
			ParentVersionID: req.ParentVersionID,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, version)
	}
}

// listVersionsHandler returns a handler for the version history query.
// GET /workflows/{workflowId}/versions
func listVersionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")

		opts := HistoryOptions{
			Limit:  queryInt(r, "limit"),
			Status: VersionStatus(r.URL.Query().Get("status")),
		}
		if v := r.URL.Query().Get("includeArchived"); v != "" {
			opts.IncludeArchived, _ = strconv.ParseBool(v)
		}

		versions, err := svc.GetVersionHistory(r.Context(), workflowID, opts)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
	}
}

// compareVersionsHandler returns a handler for the version comparison query.
// GET /workflows/{workflowId}/versions/compare?from=<id>&to=<id>
func compareVersionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")
		fromID := r.URL.Query().Get("from")
		toID := r.URL.Query().Get("to")
		if fromID == "" || toID == "" {
			writeError(w, http.StatusBadRequest, "both 'from' and 'to' query parameters are required", "")
			return
		}

		comparison, err := svc.CompareVersions(r.Context(), workflowID, fromID, toID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, comparison)
	}
}

// deployVersionHandler returns a handler that deploys a version.
// POST /workflows/{workflowId}/versions/{versionId}/deploy
func deployVersionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")
		versionID := chi.URLParam(r, "versionId")

		var req DeployRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "")
			return
		}

		result, err := svc.DeployVersion(r.Context(), workflowID, versionID, DeployOptions{
			DeployedBy:      req.DeployedBy,
			DeploymentNotes: req.DeploymentNotes,
			SkipValidation:  req.SkipValidation,
			DryRun:          req.DryRun,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// rollbackVersionHandler returns a handler that rolls a workflow back to a
// previously archived version.
// POST /workflows/{workflowId}/versions/{versionId}/rollback
func rollbackVersionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")
		versionID := chi.URLParam(r, "versionId")

		var req RollbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "")
			return
		}
		if req.Reason == "" {
			writeError(w, http.StatusBadRequest, "missing 'reason' field", "")
			return
		}

		result, err := svc.RollbackToVersion(r.Context(), workflowID, versionID, RollbackOptions{
			RolledBackBy:  req.RolledBackBy,
			Reason:        req.Reason,
			ForceRollback: req.ForceRollback,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// listDeploymentsHandler returns a handler for the deployment history query.
// GET /workflows/{workflowId}/deployments
func listDeploymentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")
		records, err := svc.GetDeploymentHistory(r.Context(), workflowID, queryInt(r, "limit"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deployments": records})
	}
}

// listRollbacksHandler returns a handler for the rollback history query.
// GET /workflows/{workflowId}/rollbacks
func listRollbacksHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")
		records, err := svc.GetRollbackHistory(r.Context(), workflowID, queryInt(r, "limit"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rollbacks": records})
	}
}

// listAuditHandler returns a handler for the audit trail query.
// GET /workflows/{workflowId}/audit
func listAuditHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")
		records, err := svc.audit.ListByWorkflow(workflowID, queryInt(r, "limit"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": records})
	}
}

// writeServiceError maps the versioning error taxonomy to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch ErrorCode(err) {
	case CodeVersionNotFound, CodeNoProductionVersion:
		status = http.StatusNotFound
	case CodeValidationFailed, CodeDeployValidation:
		status = http.StatusUnprocessableEntity
	case CodeAlreadyProduction, CodeRollbackUnsafe:
		status = http.StatusConflict
	}
	writeError(w, status, err.Error(), ErrorCode(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func queryInt(r *http.Request, key string) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
