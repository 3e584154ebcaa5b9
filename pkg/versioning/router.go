package versioning

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router exposing the version control and
// deployment API for the given service.
func NewRouter(svc *Service) chi.Router {
	r := chi.NewRouter()

	r.Route("/workflows/{workflowId}", func(r chi.Router) {
		r.Post("/versions", createVersionHandler(svc))
		r.Get("/versions", listVersionsHandler(svc))
		r.Get("/versions/compare", compareVersionsHandler(svc))
		r.Post("/versions/{versionId}/deploy", deployVersionHandler(svc))
		r.Post("/versions/{versionId}/rollback", rollbackVersionHandler(svc))
		r.Get("/deployments", listDeploymentsHandler(svc))
		r.Get("/rollbacks", listRollbacksHandler(svc))
		r.Get("/audit", listAuditHandler(svc))
	})

	r.Get("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
