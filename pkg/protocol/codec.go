package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cfoust/tumble/pkg/dice"

	"github.com/fxamacker/cbor/v2"
)

type Codec int

const (
	JSONCodec Codec = iota
	CBORCodec
)

const (
	JSON_SUBPROTOCOL = "tumble.json"
	CBOR_SUBPROTOCOL = "tumble.cbor"
)

var (
	Subprotocols = []string{CBOR_SUBPROTOCOL, JSON_SUBPROTOCOL}

	ErrUnknownEvent = errors.New("unknown event")
	ErrMalformed    = errors.New("malformed message")
)

// CodecFor returns the codec for a negotiated websocket subprotocol. Anything
// else, including no subprotocol at all, speaks JSON.
func CodecFor(subprotocol string) Codec {
	if subprotocol == CBOR_SUBPROTOCOL {
		return CBORCodec
	}
	return JSONCodec
}

func (c Codec) String() string {
	switch c {
	case CBORCodec:
		return "cbor"
	default:
		return "json"
	}
}

// Binary reports whether messages should go out as binary frames.
func (c Codec) Binary() bool {
	return c == CBORCodec
}

func (c Codec) Marshal(v any) ([]byte, error) {
	if c == CBORCodec {
		return cbor.Marshal(v)
	}
	return json.Marshal(v)
}

func (c Codec) Unmarshal(data []byte, v any) error {
	if c == CBORCodec {
		return cbor.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// Frames holds one message encoded once per codec so a broadcast does not
// re-encode for every client.
type Frames struct {
	Event string
	// Tick of the table state the message describes.
	Tick uint64

	encoded [2][]byte
}

func (f Frames) For(codec Codec) []byte {
	return f.encoded[codec]
}

func encode[T any](envelope Envelope[T]) (Frames, error) {
	frames := Frames{
		Event: envelope.Event,
		Tick:  envelope.Tick,
	}
	for _, codec := range []Codec{JSONCodec, CBORCodec} {
		data, err := codec.Marshal(envelope)
		if err != nil {
			return frames, fmt.Errorf("failed to encode %s as %s: %w", envelope.Event, codec, err)
		}
		frames.encoded[codec] = data
	}
	return frames, nil
}

func EncodeSnapshot(snapshot dice.Snapshot) (Frames, error) {
	return encode(Envelope[[]DieState]{
		Event: DiceStateUpdateEvent,
		Tick:  snapshot.Tick,
		Data:  FromSnapshot(snapshot),
	})
}

func EncodeResult(tick uint64, result dice.RollResult) (Frames, error) {
	return encode(Envelope[DiceResult]{
		Event: DiceResultEvent,
		Tick:  tick,
		Data:  FromResult(result),
	})
}

// DecodeRequest returns the event of a client message. Only client events
// are accepted.
func DecodeRequest(codec Codec, data []byte) (string, error) {
	var message GenericMessage
	err := codec.Unmarshal(data, &message)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	switch message.Event {
	case ThrowDiceEvent:
		return message.Event, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, message.Event)
	}
}
