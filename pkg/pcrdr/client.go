package pcrdr

import (
	"bytes"
	"fmt"

	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

// Client drives a Conn with msgqueue.Message values rather than raw
// Frames/Packets, the shape an instance's runloop actually wants to push
// onto and pull off of the renderer leg.
type Client struct {
	conn Conn
	heap *variant.Heap
}

// NewClient wraps conn, decoding received packets into variants owned by
// h.
func NewClient(conn Conn, h *variant.Heap) *Client {
	return &Client{conn: conn, heap: h}
}

// Send encodes msg as a Packet and writes it as a single TEXT frame
// (DefaultMaxPayloadSize fragmentation, if needed, is handled by the
// underlying Conn — WriteFrame on the UNIX leg chunks automatically;
// gorilla/websocket chunks automatically on the WebSocket leg).
func (c *Client) Send(msg *msgqueue.Message) error {
	pkt, err := FromMessage(msg)
	if err != nil {
		return err
	}
	data, err := Encode(pkt)
	if err != nil {
		return err
	}
	return c.conn.WriteFrame(&Frame{Opcode: OpText, Payload: data})
}

// Recv reads the next complete packet off the wire, reassembling a
// fragmented TEXT/BIN sequence (OpContinuation frames up to an OpEnd)
// before decoding it, and returns it as a queue message. PING/PONG/CLOSE
// control frames are surfaced as a *ControlFrameError carrying the Frame,
// not as a Message.
func (c *Client) Recv() (*msgqueue.Message, error) {
	f, err := c.conn.ReadFrame()
	if err != nil {
		return nil, err
	}
	switch f.Opcode {
	case OpPing, OpPong, OpClose:
		return nil, &ControlFrameError{Frame: f}
	case OpText, OpBinary:
		payload := f.Payload
		if f.Fragmented {
			payload, err = c.readUntilEnd(payload)
			if err != nil {
				return nil, err
			}
		}
		pkt, err := Decode(payload)
		if err != nil {
			return nil, err
		}
		return ToMessage(c.heap, pkt)
	default:
		return nil, fmt.Errorf("pcrdr: unexpected leading frame opcode %s", f.Opcode)
	}
}

// readUntilEnd accumulates OpContinuation frame payloads onto first until
// an OpEnd frame closes the sequence.
func (c *Client) readUntilEnd(first []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(first)
	for {
		f, err := c.conn.ReadFrame()
		if err != nil {
			return nil, err
		}
		switch f.Opcode {
		case OpContinuation:
			buf.Write(f.Payload)
		case OpEnd:
			return buf.Bytes(), nil
		default:
			return nil, fmt.Errorf("pcrdr: expected CONTINUATION or END frame, got %s", f.Opcode)
		}
	}
}

// Close closes the underlying Conn.
func (c *Client) Close() error { return c.conn.Close() }

// ControlFrameError wraps a PING/PONG/CLOSE frame Recv surfaced instead
// of a decoded message, so callers can answer it (e.g. PONG a PING)
// without Recv having to know the instance's keepalive policy.
type ControlFrameError struct {
	Frame *Frame
}

func (e *ControlFrameError) Error() string {
	return fmt.Sprintf("pcrdr: received %s control frame", e.Frame.Opcode)
}
