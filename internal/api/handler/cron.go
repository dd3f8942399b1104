package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/internal/scheduler"
	"github.com/vfg2006/ads-sync/pkg/apiErrors"
	"github.com/vfg2006/ads-sync/pkg/log"
	"github.com/vfg2006/ads-sync/pkg/middleware"
)

// SyncJobs is the part of the scheduler the ops API drives
type SyncJobs interface {
	TriggerManualSync(ctx context.Context, name string) error
	GetStatus() scheduler.Status
}

// RunSync starts a sync job in the background
func RunSync(jobs SyncJobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		syncType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if syncType == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "sync type is required", nil)
			return
		}

		operator := ""
		if claims, ok := r.Context().Value(middleware.ContextKeyOperator).(*domain.Claims); ok {
			operator = claims.Subject
		}

		// the run outlives the request
		err := jobs.TriggerManualSync(context.WithoutCancel(r.Context()), syncType)
		switch {
		case errors.Is(err, scheduler.ErrUnknownJob):
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "invalid sync type, expected incremental, bulk, summary or all", nil)
			return
		case errors.Is(err, scheduler.ErrAlreadyRunning):
			apiErrors.WriteError(w, apiErrors.ErrSyncAlreadyRunning, err.Error(), nil)
			return
		case err != nil:
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, err.Error(), nil)
			return
		}

		log.ForContext(r.Context()).WithFields(log.Fields{
			"type":     syncType,
			"operator": operator,
		}).Info("manual sync started")

		writeJSON(w, http.StatusAccepted, map[string]any{
			"message": "sync started",
			"type":    syncType,
		})
	}
}

// GetSyncStatus returns the scheduler state with the last report of each job
func GetSyncStatus(jobs SyncJobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, jobs.GetStatus())
	}
}
