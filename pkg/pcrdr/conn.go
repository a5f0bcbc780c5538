package pcrdr

import "io"

// Conn is the transport-agnostic boundary the packet codec drives: read
// one Frame at a time, write one Frame at a time, close the underlying
// transport. ws.go and unixsock.go each implement this over a different
// wire; the rest of this package never sees a *websocket.Conn or a
// net.Conn directly.
type Conn interface {
	ReadFrame() (*Frame, error)
	WriteFrame(f *Frame) error
	io.Closer
}
