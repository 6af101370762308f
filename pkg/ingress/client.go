package ingress

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/cfoust/tumble/pkg/protocol"

	"github.com/mileusna/useragent"
	"golang.org/x/time/rate"
)

type WSClient struct {
	id     uint16
	host   string
	device string
	codec  protocol.Codec

	send      chan []byte
	closeSlow func()
	closeOnce sync.Once
	throws    *rate.Limiter

	// Tick of the state queued when the client joined. Guarded by the
	// ingress lock.
	synced uint64
}

func NewWSClient(settings Settings, codec protocol.Codec) *WSClient {
	limit := rate.Inf
	if settings.ThrowsPerSecond > 0 {
		limit = rate.Limit(settings.ThrowsPerSecond)
	}

	return &WSClient{
		codec:     codec,
		send:      make(chan []byte, settings.SendBuffer),
		closeSlow: func() {},
		throws:    rate.NewLimiter(limit, settings.ThrowBurst),
	}
}

func (c *WSClient) Id() uint16 {
	return c.id
}

// disconnect runs closeSlow at most once however many broadcasts overflow.
func (c *WSClient) disconnect() {
	c.closeOnce.Do(c.closeSlow)
}

// describeDevice turns a User-Agent header into a short label for logs.
func describeDevice(header string) string {
	if header == "" {
		return "unknown"
	}

	agent := useragent.Parse(header)

	kind := "desktop"
	switch {
	case agent.Bot:
		kind = "bot"
	case agent.Tablet:
		kind = "tablet"
	case agent.Mobile:
		kind = "mobile"
	}

	name := agent.Name
	if name == "" {
		name = "unknown"
	}

	if agent.OS == "" {
		return fmt.Sprintf("%s (%s)", name, kind)
	}

	return fmt.Sprintf("%s on %s (%s)", name, agent.OS, kind)
}

// newClientID picks a random ID not used by any connected client. Must be
// called with the ingress lock held.
func (server *WSIngress) newClientID() (uint16, error) {
	for attempts := 0; attempts < math.MaxUint16; attempts++ {
		number, err := rand.Int(rand.Reader, big.NewInt(math.MaxUint16))
		if err != nil {
			return 0, fmt.Errorf("failed to generate client ID: %w", err)
		}
		id := uint16(number.Uint64())

		taken := false
		for client := range server.clients {
			if client.id == id {
				taken = true
				break
			}
		}
		if taken {
			continue
		}

		return id, nil
	}

	return 0, errors.New("failed to assign client ID")
}
