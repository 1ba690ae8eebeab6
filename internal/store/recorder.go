package store

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"videod/pkg/types"
)

var recorderFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "videod",
	Subsystem: "recorder",
	Name:      "failures_total",
	Help:      "Generation records that could not be persisted.",
})

func init() {
	prometheus.MustRegister(recorderFailures)
}

// Recorder persists generation records on a best-effort basis. A failed
// write never fails the generation that produced it: the error is logged
// and counted, and the caller gets a zero id meaning "not recorded".
type Recorder struct {
	store *Store
	log   zerolog.Logger
}

// NewRecorder wraps a store in best-effort recording semantics.
func NewRecorder(s *Store, log zerolog.Logger) *Recorder {
	return &Recorder{store: s, log: log}
}

// Record inserts rec and returns its row id, or 0 when persistence failed.
func (r *Recorder) Record(ctx context.Context, rec types.GenerationRecord) int64 {
	id, err := r.store.AddGeneration(ctx, rec)
	if err != nil {
		recorderFailures.Inc()
		r.log.Error().Err(err).
			Str("filename", rec.Filename).
			Str("status", rec.Status).
			Msg("failed to record generation")
		return 0
	}
	return id
}
