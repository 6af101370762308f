package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cfoust/tumble/pkg/dice"
	"github.com/cfoust/tumble/pkg/protocol"
	"github.com/cfoust/tumble/pkg/table"
	"github.com/cfoust/tumble/pkg/utils"

	"github.com/go-redis/redis/v9"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

type Settings struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	// Prepended to every key and channel.
	Prefix string `yaml:"prefix" json:"prefix"`
	// How often the table status is saved.
	StatusInterval utils.Duration `yaml:"statusInterval" json:"statusInterval"`
	// How long the status key outlives the last update.
	StatusTTL utils.Duration `yaml:"statusTTL" json:"statusTTL"`
}

func DefaultSettings() Settings {
	return Settings{
		Address:        "localhost:6379",
		Prefix:         "tumble-",
		StatusInterval: utils.Duration(5 * time.Second),
		StatusTTL:      utils.Duration(30 * time.Second),
	}
}

const (
	KEY_RESULTS     = "results"
	KEY_LAST_RESULT = "last-result"
	KEY_STATUS      = "status"
)

const Nil = redis.Nil

// StateService announces results and table status over redis so other
// services can follow the table without a websocket.
type StateService struct {
	client   *redis.Client
	settings Settings
}

func NewStateService(settings Settings) *StateService {
	return &StateService{
		client: redis.NewClient(&redis.Options{
			Addr:     settings.Address,
			Password: settings.Password,
			DB:       settings.DB,
		}),
		settings: settings,
	}
}

func (r *StateService) key(name string) string {
	return r.settings.Prefix + name
}

func (r *StateService) Ping(ctx context.Context) error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("could not reach redis at %s: %w", r.settings.Address, err)
	}
	return nil
}

func (r *StateService) Close() error {
	return r.client.Close()
}

func encodeResult(tick uint64, result dice.RollResult) ([]byte, error) {
	frames, err := protocol.EncodeResult(tick, result)
	if err != nil {
		return nil, err
	}
	return frames.For(protocol.JSONCodec), nil
}

// PublishResult sends a result on the results channel and keeps it as the
// last result.
func (r *StateService) PublishResult(ctx context.Context, tick uint64, result dice.RollResult) error {
	payload, err := encodeResult(tick, result)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Publish(ctx, r.key(KEY_RESULTS), payload)
	pipe.Set(ctx, r.key(KEY_LAST_RESULT), payload, 0)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	return nil
}

// GetLastResult returns the last result announced by any table sharing the
// prefix, if there is one.
func (r *StateService) GetLastResult(ctx context.Context) (opt.Option[protocol.Envelope[protocol.DiceResult]], error) {
	data, err := r.client.Get(ctx, r.key(KEY_LAST_RESULT)).Bytes()
	if err == Nil {
		return opt.None[protocol.Envelope[protocol.DiceResult]](), nil
	}
	if err != nil {
		return opt.None[protocol.Envelope[protocol.DiceResult]](), err
	}

	var envelope protocol.Envelope[protocol.DiceResult]
	err = json.Unmarshal(data, &envelope)
	if err != nil {
		return opt.None[protocol.Envelope[protocol.DiceResult]](), fmt.Errorf("failed to decode last result: %w", err)
	}

	return opt.Some(envelope), nil
}

func statusFields(status table.Status, observers int) map[string]interface{} {
	return map[string]interface{}{
		"state":     status.State.String(),
		"tick":      strconv.FormatUint(status.Tick, 10),
		"time":      strconv.FormatFloat(status.Time, 'f', 3, 64),
		"observers": strconv.Itoa(observers),
	}
}

func (r *StateService) SaveStatus(ctx context.Context, status table.Status, observers int) error {
	key := r.key(KEY_STATUS)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, statusFields(status, observers))
	pipe.Expire(ctx, key, r.settings.StatusTTL.Std())

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}

	return nil
}

type StatusSource interface {
	Status() table.Status
}

// Poll publishes every result read from outputs and saves the table status
// every status interval until ctx is done.
func (r *StateService) Poll(ctx context.Context, outputs <-chan table.Output, source StatusSource, observers func() int) {
	ticker := time.NewTicker(r.settings.StatusInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case output, ok := <-outputs:
			if !ok {
				return
			}

			settled, ok := output.(table.RollSettled)
			if !ok {
				continue
			}

			err := r.PublishResult(ctx, settled.Tick, settled.Result)
			if err != nil {
				log.Warn().Err(err).Msg("could not announce result")
			}
		case <-ticker.C:
			err := r.SaveStatus(ctx, source.Status(), observers())
			if err != nil {
				log.Warn().Err(err).Msg("could not save table status")
			}
		}
	}
}
