package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)

			r.Post("/ads/{ad_id}/predict", handler.predict)
			r.Post("/ads/{ad_id}/outcome", handler.recordOutcome)
			r.Post("/ads/{ad_id}/discoveries", handler.discoverFeatures)

			r.Get("/dashboard", handler.getDashboard)

			r.Post("/history/undo", handler.undo)
			r.Post("/history/redo", handler.redo)
			r.Get("/history", handler.listHistory)

			r.Post("/snapshots", handler.createSnapshot)
			r.Get("/snapshots", handler.listSnapshots)
			r.Post("/snapshots/{snapshot_id}/restore", handler.restoreSnapshot)

			r.Get("/weights", handler.listWeights)
			r.Put("/weights/mode", handler.setWeightMode)

			r.Post("/features/validate", handler.validateFeatures)

			r.Post("/recalculations", handler.triggerRecalculation)
			r.Get("/recalculations", handler.listRecalculations)

			r.Put("/segments/{segment_id}", handler.upsertSegment)
		})
	})

	return r
}
