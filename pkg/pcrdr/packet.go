package pcrdr

import (
	"encoding/json"
	"fmt"

	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/variant/codec"
)

// Packet is the JSON object one line of the renderer protocol carries.
// Every variant-valued field of msgqueue.Message round-trips as ejson
// (codec.MarshalJSON/UnmarshalJSON) rather than a plain string, since
// operation/property/data are themselves arbitrary HVML values, not
// necessarily scalars.
type Packet struct {
	Type        string          `json:"type"`
	RequestID   string          `json:"requestId,omitempty"`
	TimerID     string          `json:"timerId,omitempty"`
	ElementType string          `json:"elementType,omitempty"`
	DataType    string          `json:"dataType,omitempty"`
	RetCode     int             `json:"retCode,omitempty"`

	Operation       json.RawMessage `json:"operation,omitempty"`
	Event           json.RawMessage `json:"event,omitempty"`
	ElementSelector json.RawMessage `json:"elementSelector,omitempty"`
	Property        json.RawMessage `json:"property,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
}

var typeNames = map[msgqueue.Type]string{
	msgqueue.TypeVoid:     "void",
	msgqueue.TypeRequest:  "request",
	msgqueue.TypeResponse: "response",
	msgqueue.TypeEvent:    "event",
}

var typeValues = map[string]msgqueue.Type{
	"void":     msgqueue.TypeVoid,
	"request":  msgqueue.TypeRequest,
	"response": msgqueue.TypeResponse,
	"event":    msgqueue.TypeEvent,
}

// Encode marshals pkt to a single JSON line (no trailing newline; callers
// that need one, e.g. the UNIX socket leg, append it themselves).
func Encode(pkt *Packet) ([]byte, error) {
	return json.Marshal(pkt)
}

// Decode parses one JSON line into a Packet.
func Decode(data []byte) (*Packet, error) {
	var pkt Packet
	if err := json.Unmarshal(data, &pkt); err != nil {
		return nil, fmt.Errorf("pcrdr: decode packet: %w", err)
	}
	return &pkt, nil
}

// FromMessage converts a queue message into its wire Packet, for handing
// to Encode before writing a Frame.
func FromMessage(msg *msgqueue.Message) (*Packet, error) {
	pkt := &Packet{
		Type:        typeNames[msg.Header.Type],
		RequestID:   msg.RequestID,
		TimerID:     msg.TimerID,
		ElementType: msg.Header.ElementType,
		DataType:    msg.Header.DataType,
		RetCode:     msg.Header.RetCode,
	}
	var err error
	if pkt.Operation, err = marshalField(msg.Operation); err != nil {
		return nil, err
	}
	if pkt.Event, err = marshalField(msg.Event); err != nil {
		return nil, err
	}
	if pkt.ElementSelector, err = marshalField(msg.ElementSelector); err != nil {
		return nil, err
	}
	if pkt.Property, err = marshalField(msg.Property); err != nil {
		return nil, err
	}
	if pkt.Data, err = marshalField(msg.Data); err != nil {
		return nil, err
	}
	return pkt, nil
}

// ToMessage converts a decoded Packet back into a queue message, its
// variant fields freshly allocated on h.
func ToMessage(h *variant.Heap, pkt *Packet) (*msgqueue.Message, error) {
	typ, ok := typeValues[pkt.Type]
	if !ok {
		return nil, fmt.Errorf("pcrdr: unknown packet type %q", pkt.Type)
	}
	msg := &msgqueue.Message{
		Header: msgqueue.Header{
			Type:        typ,
			ElementType: pkt.ElementType,
			DataType:    pkt.DataType,
			RetCode:     pkt.RetCode,
		},
		RequestID: pkt.RequestID,
		TimerID:   pkt.TimerID,
	}
	var err error
	if msg.Operation, err = unmarshalField(h, pkt.Operation); err != nil {
		return nil, err
	}
	if msg.Event, err = unmarshalField(h, pkt.Event); err != nil {
		return nil, err
	}
	if msg.ElementSelector, err = unmarshalField(h, pkt.ElementSelector); err != nil {
		return nil, err
	}
	if msg.Property, err = unmarshalField(h, pkt.Property); err != nil {
		return nil, err
	}
	if msg.Data, err = unmarshalField(h, pkt.Data); err != nil {
		return nil, err
	}
	return msg, nil
}

func marshalField(v *variant.Variant) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := codec.MarshalJSON(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func unmarshalField(h *variant.Heap, raw json.RawMessage) (*variant.Variant, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return codec.UnmarshalJSON(h, raw)
}
