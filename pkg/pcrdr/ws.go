package pcrdr

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn adapts a *websocket.Conn to Conn, translating gorilla's
// message-type constants to this package's Opcode and back. WebSocket
// already frames messages natively, so Fragmented is always false here —
// it only matters on the UNIX socket leg.
type wsConn struct {
	conn *websocket.Conn
}

// DialWebSocket opens the WebSocket leg of the renderer transport.
func DialWebSocket(url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("pcrdr: dial %s: %w", url, err)
	}
	return &wsConn{conn: c}, nil
}

func (w *wsConn) ReadFrame() (*Frame, error) {
	mt, payload, err := w.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	op, err := opcodeFromWS(mt)
	if err != nil {
		return nil, err
	}
	return &Frame{Opcode: op, Payload: payload}, nil
}

func (w *wsConn) WriteFrame(f *Frame) error {
	mt, err := opcodeToWS(f.Opcode)
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(mt, f.Payload)
}

func (w *wsConn) Close() error {
	_ = w.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
	return w.conn.Close()
}

func opcodeFromWS(mt int) (Opcode, error) {
	switch mt {
	case websocket.TextMessage:
		return OpText, nil
	case websocket.BinaryMessage:
		return OpBinary, nil
	case websocket.PingMessage:
		return OpPing, nil
	case websocket.PongMessage:
		return OpPong, nil
	case websocket.CloseMessage:
		return OpClose, nil
	default:
		return 0, fmt.Errorf("pcrdr: unsupported websocket message type %d", mt)
	}
}

func opcodeToWS(op Opcode) (int, error) {
	switch op {
	case OpText:
		return websocket.TextMessage, nil
	case OpBinary:
		return websocket.BinaryMessage, nil
	case OpPing:
		return websocket.PingMessage, nil
	case OpPong:
		return websocket.PongMessage, nil
	case OpClose:
		return websocket.CloseMessage, nil
	default:
		return 0, fmt.Errorf("pcrdr: opcode %s has no websocket equivalent", op)
	}
}
