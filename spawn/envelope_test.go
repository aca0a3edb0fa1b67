package spawn

import (
	"net"
	"testing"
)

func listenLoopback(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	return conn
}

func TestSendRecvEnvelopeRoundTrips(t *testing.T) {
	server := listenLoopback(t)
	defer server.Close()
	client := listenLoopback(t)
	defer client.Close()

	env := WireEnvelope[string]{From: 1, To: 2, Msg: "hello"}
	if err := sendEnvelope(client, server.LocalAddr().(*net.UDPAddr), env); err != nil {
		t.Fatalf("sendEnvelope: %v", err)
	}

	buf := make([]byte, maxDatagram)
	n, _, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	got, err := recvEnvelope[string](buf[:n])
	if err != nil {
		t.Fatalf("recvEnvelope: %v", err)
	}
	if got.From != 1 || got.To != 2 || got.Msg != "hello" {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestRecvEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := recvEnvelope[string]([]byte("not json")); err == nil {
		t.Fatalf("expected an error decoding non-JSON data")
	}
}
