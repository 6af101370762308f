package protocol

import (
	"encoding/json"
	"testing"

	"github.com/cfoust/tumble/pkg/dice"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() dice.Snapshot {
	return dice.Snapshot{
		Tick: 12,
		Time: 0.2,
		Dice: []dice.Pose{
			{
				Position:   mgl64.Vec3{1, 0.25, -0.5},
				Quaternion: mgl64.Quat{W: 0.5, V: mgl64.Vec3{0.5, -0.5, 0.5}},
			},
			{
				Position:   mgl64.Vec3{0, 0.25, 0},
				Quaternion: mgl64.QuatIdent(),
			},
		},
	}
}

func TestSnapshotJSON(t *testing.T) {
	frames, err := EncodeSnapshot(testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, DiceStateUpdateEvent, frames.Event)
	assert.Equal(t, uint64(12), frames.Tick)

	assert.JSONEq(t, `{
  "event": "diceStateUpdate",
  "tick": 12,
  "data": [
    {"position": {"x": 1, "y": 0.25, "z": -0.5}, "quaternion": {"x": 0.5, "y": -0.5, "z": 0.5, "w": 0.5}},
    {"position": {"x": 0, "y": 0.25, "z": 0}, "quaternion": {"x": 0, "y": 0, "z": 0, "w": 1}}
  ]
}`, string(frames.For(JSONCodec)))
}

func TestSnapshotCBOR(t *testing.T) {
	frames, err := EncodeSnapshot(testSnapshot())
	require.NoError(t, err)

	var envelope Envelope[[]DieState]
	require.NoError(t, cbor.Unmarshal(frames.For(CBORCodec), &envelope))
	assert.Equal(t, DiceStateUpdateEvent, envelope.Event)
	assert.Equal(t, uint64(12), envelope.Tick)
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, Vector{1, 0.25, -0.5}, envelope.Data[0].Position)
	assert.Equal(t, Quaternion{0.5, -0.5, 0.5, 0.5}, envelope.Data[0].Quaternion)
}

func TestResultJSON(t *testing.T) {
	frames, err := EncodeResult(90, dice.RollResult{
		Individual: []int{1, 2, 2, 4, 6},
		Total:      15,
	})
	require.NoError(t, err)
	assert.Equal(t, DiceResultEvent, frames.Event)
	assert.Equal(t, uint64(90), frames.Tick)

	assert.JSONEq(t, `{
  "event": "diceResult",
  "tick": 90,
  "data": {"individual": [1, 2, 2, 4, 6], "total": 15}
}`, string(frames.For(JSONCodec)))

	frames, err = EncodeResult(91, dice.RollResult{
		Individual: []int{6, 6, 6, 6, 6},
		Total:      30,
		Forced:     true,
	})
	require.NoError(t, err)

	var envelope Envelope[DiceResult]
	require.NoError(t, json.Unmarshal(frames.For(JSONCodec), &envelope))
	assert.True(t, envelope.Data.Forced)
}

func TestDecodeRequest(t *testing.T) {
	event, err := DecodeRequest(JSONCodec, []byte(`{"event": "throwDice"}`))
	require.NoError(t, err)
	assert.Equal(t, ThrowDiceEvent, event)

	data, err := cbor.Marshal(GenericMessage{Event: ThrowDiceEvent})
	require.NoError(t, err)
	event, err = DecodeRequest(CBORCodec, data)
	require.NoError(t, err)
	assert.Equal(t, ThrowDiceEvent, event)

	_, err = DecodeRequest(JSONCodec, []byte(`{"event": "diceResult"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeRequest(JSONCodec, []byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeRequest(CBORCodec, []byte(`{"event": "throwDice"}`))
	assert.Error(t, err)
}

func TestCodecFor(t *testing.T) {
	assert.Equal(t, CBORCodec, CodecFor(CBOR_SUBPROTOCOL))
	assert.Equal(t, JSONCodec, CodecFor(JSON_SUBPROTOCOL))
	assert.Equal(t, JSONCodec, CodecFor(""))
	assert.True(t, CBORCodec.Binary())
	assert.False(t, JSONCodec.Binary())
}
