package controllers

import (
	"net/http"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/internal/dashboard"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

// DashboardOverview returns the dashboard for an optional start_date/end_date range.
func DashboardOverview(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rng, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		overview, err := svc.Overview(r.Context(), state.BackendToken, rng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}
