package ingress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cfoust/tumble/pkg/dice"
	"github.com/cfoust/tumble/pkg/protocol"
	"github.com/cfoust/tumble/pkg/table"
	"github.com/cfoust/tumble/pkg/utils"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"nhooyr.io/websocket"
)

const (
	// Clients only ever send tiny requests.
	MAX_MESSAGE_SIZE = 4096
)

type Settings struct {
	// Messages queued per client before it is considered too slow.
	SendBuffer   int            `yaml:"sendBuffer" json:"sendBuffer"`
	WriteTimeout utils.Duration `yaml:"writeTimeout" json:"writeTimeout"`
	// Throws a single client may request per second. Zero disables the
	// limit.
	ThrowsPerSecond float64  `yaml:"throwsPerSecond" json:"throwsPerSecond"`
	ThrowBurst      int      `yaml:"throwBurst" json:"throwBurst"`
	OriginPatterns  []string `yaml:"originPatterns" json:"originPatterns"`
}

func DefaultSettings() Settings {
	return Settings{
		SendBuffer:      64,
		WriteTimeout:    utils.Duration(5 * time.Second),
		ThrowsPerSecond: 2,
		ThrowBurst:      3,
		OriginPatterns:  []string{"*"},
	}
}

// Table is what the ingress needs from the dice table.
type Table interface {
	Apply(table.Command) []table.Output
	// Sync returns the latest snapshot and the last settled roll as of the
	// same tick.
	Sync() (dice.Snapshot, opt.Option[table.RollSettled])
}

type WSIngress struct {
	table    Table
	settings Settings
	clients  map[*WSClient]struct{}
	mutex    deadlock.Mutex
}

func NewWSIngress(table Table, settings Settings) *WSIngress {
	// Late joiners get a snapshot and a result before anything else.
	if settings.SendBuffer < 2 {
		settings.SendBuffer = 2
	}

	return &WSIngress{
		table:    table,
		settings: settings,
		clients:  make(map[*WSClient]struct{}),
	}
}

func WriteTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, codec protocol.Codec, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messageType := websocket.MessageText
	if codec.Binary() {
		messageType = websocket.MessageBinary
	}

	return c.Write(ctx, messageType, msg)
}

// AddClient queues the current table state for a client and makes it
// visible to Broadcast under the same lock, so it sees every later output
// exactly once.
func (server *WSIngress) AddClient(client *WSClient) error {
	server.mutex.Lock()
	defer server.mutex.Unlock()

	id, err := server.newClientID()
	if err != nil {
		return err
	}

	err = server.sync(client)
	if err != nil {
		return err
	}

	client.id = id
	server.clients[client] = struct{}{}
	return nil
}

func (server *WSIngress) RemoveClient(client *WSClient) {
	server.mutex.Lock()
	delete(server.clients, client)
	server.mutex.Unlock()
}

func (server *WSIngress) NumClients() int {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return len(server.clients)
}

// sync queues the current table state for a client that is joining. Must be
// called with the ingress lock held.
func (server *WSIngress) sync(client *WSClient) error {
	snapshot, settled := server.table.Sync()

	frames, err := protocol.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	queue := []protocol.Frames{frames}

	if opt.IsSome(settled) {
		frames, err = protocol.EncodeResult(settled.Value.Tick, settled.Value.Result)
		if err != nil {
			return err
		}
		queue = append(queue, frames)
	}

	if len(queue) > cap(client.send)-len(client.send) {
		return fmt.Errorf("send buffer too small to sync %d messages", len(queue))
	}

	for _, frames := range queue {
		client.send <- frames.For(client.codec)
	}
	client.synced = snapshot.Tick

	return nil
}

func (server *WSIngress) HandleClient(ctx context.Context, c *websocket.Conn, client *WSClient) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client.closeSlow = func() {
		c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
	}

	err := server.AddClient(client)
	if err != nil {
		log.Error().Err(err).Msg("failed to accept ws client")
		return err
	}
	defer server.RemoveClient(client)

	logger := log.With().
		Uint16("clientId", client.id).
		Str("host", client.host).
		Str("device", client.device).
		Str("codec", client.codec.String()).
		Logger()

	logger.Info().Msg("client joined")

	c.SetReadLimit(MAX_MESSAGE_SIZE)

	receive := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		for {
			_, message, err := c.Read(ctx)
			if err != nil {
				readErr <- err
				return
			}

			select {
			case receive <- message:
			case <-ctx.Done():
				return
			}
		}
	}()

	timeout := server.settings.WriteTimeout.Std()

	for {
		select {
		case msg := <-receive:
			event, err := protocol.DecodeRequest(client.codec, msg)
			if err != nil {
				logger.Debug().Err(err).Msg("dropping client message")
				continue
			}

			switch event {
			case protocol.ThrowDiceEvent:
				if !client.throws.Allow() {
					logger.Debug().Msg("throw rate limited")
					continue
				}

				logger.Debug().Msg("client requested throw")
				server.table.Apply(table.ThrowRequested{})
			}
		case msg := <-client.send:
			err := WriteTimeout(ctx, timeout, c, client.codec, msg)
			if err != nil {
				logger.Error().Msg("client missed write timeout; disconnecting")
				return err
			}
		case err := <-readErr:
			logger.Info().Msg("client left")
			return err
		case <-ctx.Done():
			logger.Info().Msg("client left")
			return ctx.Err()
		}
	}
}

func (server *WSIngress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   protocol.Subprotocols,
		OriginPatterns: server.settings.OriginPatterns,
	})

	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during relay")

	client := NewWSClient(server.settings, protocol.CodecFor(c.Subprotocol()))
	client.device = describeDevice(r.UserAgent())

	// We use nginx for ingress everywhere, so check this first
	client.host = r.RemoteAddr
	original, ok := r.Header["X-Forwarded-For"]
	if ok {
		client.host = original[0]
	}

	err = server.HandleClient(r.Context(), c, client)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to close client port")
		return
	}
}

// Broadcast queues frames for every client without blocking. Clients whose
// queue is full are disconnected. Frames a client already got when it
// joined are skipped.
func (server *WSIngress) Broadcast(frames protocol.Frames) {
	server.mutex.Lock()
	defer server.mutex.Unlock()

	for client := range server.clients {
		if frames.Tick <= client.synced {
			continue
		}

		select {
		case client.send <- frames.For(client.codec):
		default:
			go client.disconnect()
		}
	}
}

func encodeOutput(output table.Output) (protocol.Frames, error) {
	switch output := output.(type) {
	case table.SnapshotReady:
		return protocol.EncodeSnapshot(output.Snapshot)
	case table.RollSettled:
		return protocol.EncodeResult(output.Tick, output.Result)
	}
	return protocol.Frames{}, fmt.Errorf("unsupported output %T", output)
}

// Poll broadcasts table outputs until ctx is done or the channel closes.
func (server *WSIngress) Poll(ctx context.Context, outputs <-chan table.Output) {
	for {
		select {
		case <-ctx.Done():
			return
		case output, ok := <-outputs:
			if !ok {
				return
			}

			frames, err := encodeOutput(output)
			if err != nil {
				log.Error().Err(err).Msg("could not encode table output")
				continue
			}

			server.Broadcast(frames)
		}
	}
}
