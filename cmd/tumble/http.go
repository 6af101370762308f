package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cfoust/tumble/pkg/protocol"
	"github.com/cfoust/tumble/pkg/table"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

type StatusResponse struct {
	State      string               `json:"state"`
	Tick       uint64               `json:"tick"`
	Time       float64              `json:"time"`
	Observers  int                  `json:"observers"`
	LastResult *protocol.DiceResult `json:"lastResult,omitempty"`
}

type StatusSource interface {
	Status() table.Status
}

// ResultStore remembers results across restarts.
type ResultStore interface {
	GetLastResult(ctx context.Context) (opt.Option[protocol.Envelope[protocol.DiceResult]], error)
}

// StatusHandler serves the table status as JSON. Until the table settles its
// first roll, the last result comes from results when there is a store.
func StatusHandler(source StatusSource, observers func() int, results opt.Option[ResultStore]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := source.Status()
		response := StatusResponse{
			State:     status.State.String(),
			Tick:      status.Tick,
			Time:      status.Time,
			Observers: observers(),
		}
		if opt.IsSome(status.LastResult) {
			result := protocol.FromResult(status.LastResult.Value)
			response.LastResult = &result
		} else if opt.IsSome(results) {
			last, err := results.Value.GetLastResult(r.Context())
			if err != nil {
				log.Warn().Err(err).Msg("could not read stored result")
			} else if opt.IsSome(last) {
				response.LastResult = &last.Value.Data
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		err := json.NewEncoder(w).Encode(response)
		if err != nil {
			log.Warn().Err(err).Msg("failed to write status")
		}
	})
}
