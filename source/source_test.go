package source

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/flowplane/ingest/config"
	"github.com/flowplane/ingest/dispatch"
	"github.com/flowplane/ingest/record"
)

// TestSourceDecodesDatagram binds a real loopback UDP socket (port 0 so
// the kernel picks a free one), sends one NetFlow v5 datagram to it, and
// checks the Sink receives the decoded record.
func TestSourceDecodesDatagram(t *testing.T) {
	listener := config.Listener{Address: "127.0.0.1:0", MaxLength: 2048, MaxTemplates: 100}

	var mu sync.Mutex
	var got []*record.Record
	received := make(chan struct{}, 1)

	src := New("test", listener, dispatch.Protocols{NetflowV5: true}, func(records []*record.Record) {
		mu.Lock()
		got = records
		mu.Unlock()
		received <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := src.bind(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	src.conn = conn
	addr := conn.LocalAddr().(*net.UDPAddr)

	runDone := make(chan error, 1)
	go func() {
		runDone <- src.runWithConn(ctx, conn)
	}()

	payload := make([]byte, 24)
	binary.BigEndian.PutUint16(payload[0:2], 5)

	writer, err := net.Dial("udp", addr.String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer writer.Close()
	if _, err := writer.Write(payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for record")
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].FlowType != "unknown" {
		t.Fatalf("expected 1 unknown record (v5 header with count 0), got %+v", got)
	}
}
