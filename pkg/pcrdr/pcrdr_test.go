package pcrdr

import (
	"bufio"
	"net"
	"testing"

	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

func TestPacketRoundTripsThroughMessage(t *testing.T) {
	h := variant.NewHeap()

	op := h.NewString("call", false)
	sel := h.NewString("#foo", false)
	prop := h.NewNull()
	data := h.NewObject([]string{"x"}, []*variant.Variant{h.NewNumber(1)})

	msg := msgqueue.NewRequestMessage(op, sel, prop, data)

	pkt, err := FromMessage(msg)
	if err != nil {
		t.Fatalf("FromMessage: %v", err)
	}
	if pkt.Type != "request" {
		t.Fatalf("Type = %q, want request", pkt.Type)
	}
	if pkt.RequestID != msg.RequestID {
		t.Fatalf("RequestID = %q, want %q", pkt.RequestID, msg.RequestID)
	}

	data2, err := Encode(pkt)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	pkt2, err := Decode(data2)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	back, err := ToMessage(h, pkt2)
	if err != nil {
		t.Fatalf("ToMessage: %v", err)
	}
	if back.Header.Type != msgqueue.TypeRequest {
		t.Fatalf("Header.Type = %v, want TypeRequest", back.Header.Type)
	}
	if back.RequestID != msg.RequestID {
		t.Fatalf("RequestID round-trip mismatch: got %q want %q", back.RequestID, msg.RequestID)
	}
	if back.Operation.String() != "call" {
		t.Fatalf("Operation = %q, want call", back.Operation.String())
	}
	if back.ElementSelector.String() != "#foo" {
		t.Fatalf("ElementSelector = %q, want #foo", back.ElementSelector.String())
	}
	got, ok := back.Data.GetByKey("x")
	if !ok {
		t.Fatalf("Data missing key x")
	}
	if got.Number() != 1 {
		t.Fatalf("Data.x = %v, want 1", got.Number())
	}
}

func TestUnixConnRoundTripsSmallTextFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := &unixConn{conn: client, r: bufio.NewReader(client), maxPayload: DefaultMaxPayloadSize}
	s := &unixConn{conn: server, r: bufio.NewReader(server), maxPayload: DefaultMaxPayloadSize}

	done := make(chan error, 1)
	go func() {
		done <- c.WriteFrame(&Frame{Opcode: OpText, Payload: []byte(`{"type":"request"}`)})
	}()

	f, err := s.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if f.Opcode != OpText || f.Fragmented {
		t.Fatalf("got Opcode=%s Fragmented=%v, want OpText unfragmented", f.Opcode, f.Fragmented)
	}
	if string(f.Payload) != `{"type":"request"}` {
		t.Fatalf("payload = %q", f.Payload)
	}
}

func TestUnixConnFragmentsOversizedBinaryPayload(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := &unixConn{conn: client, r: bufio.NewReader(client), maxPayload: 4}
	s := &unixConn{conn: server, r: bufio.NewReader(server), maxPayload: 4}

	payload := []byte("0123456789")

	done := make(chan error, 1)
	go func() {
		done <- c.WriteFrame(&Frame{Opcode: OpBinary, Payload: payload})
	}()

	var got []byte
	first, err := s.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame (start): %v", err)
	}
	if first.Opcode != OpBinary || !first.Fragmented {
		t.Fatalf("first frame = %+v, want fragmented OpBinary", first)
	}
	got = append(got, first.Payload...)
	for {
		f, err := s.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame (cont): %v", err)
		}
		if f.Opcode == OpEnd {
			break
		}
		if f.Opcode != OpContinuation {
			t.Fatalf("unexpected opcode %s mid-sequence", f.Opcode)
		}
		got = append(got, f.Payload...)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("reassembled payload = %q, want %q", got, payload)
	}
}

func TestClientRecvReassemblesFragmentedMessage(t *testing.T) {
	h := variant.NewHeap()
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	writer := &unixConn{conn: client, r: bufio.NewReader(client), maxPayload: 8}
	reader := &unixConn{conn: server, r: bufio.NewReader(server), maxPayload: 8}

	msg := msgqueue.NewRequestMessage(h.NewString("call", false), nil, nil, nil)

	sender := NewClient(writer, h)
	receiver := NewClient(reader, h)

	done := make(chan error, 1)
	go func() { done <- sender.Send(msg) }()

	got, err := receiver.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.RequestID != msg.RequestID {
		t.Fatalf("RequestID = %q, want %q", got.RequestID, msg.RequestID)
	}
	if got.Operation.String() != "call" {
		t.Fatalf("Operation = %q, want call", got.Operation.String())
	}
}
