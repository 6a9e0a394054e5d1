package netflow5

import "testing"

func buildHeader(count uint16) []byte {
	h := make([]byte, headerLength)
	h[0], h[1] = 0x00, 0x05 // version 5
	h[2] = byte(count >> 8)
	h[3] = byte(count)
	return h
}

func buildRecord(src, dst [4]byte, srcPort, dstPort uint16, protocol byte) []byte {
	b := make([]byte, recordLength)
	copy(b[0:4], src[:])
	copy(b[4:8], dst[:])
	b[32], b[33] = byte(srcPort>>8), byte(srcPort)
	b[34], b[35] = byte(dstPort>>8), byte(dstPort)
	b[38] = protocol
	return b
}

// Scenario A from spec.md §8.
func TestScenarioA(t *testing.T) {
	payload := append(buildHeader(1), buildRecord([4]byte{192, 168, 1, 1}, [4]byte{10, 0, 0, 1}, 80, 443, 6)...)

	recs := Decode(payload)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.FlowType != "netflow_v5" {
		t.Fatalf("unexpected flow type %q", r.FlowType)
	}
	checks := map[string]interface{}{
		"src_addr":      "192.168.1.1",
		"dst_addr":      "10.0.0.1",
		"src_port":      uint16(80),
		"dst_port":      uint16(443),
		"protocol":      uint8(6),
		"protocol_name": "TCP",
	}
	for name, want := range checks {
		got, ok := r.Get(name)
		if !ok || got != want {
			t.Fatalf("field %s: got %v (ok=%v), want %v", name, got, ok, want)
		}
	}
}

// Scenario E from spec.md §8: truncated v5 datagram yields zero records.
func TestScenarioETruncated(t *testing.T) {
	payload := []byte{0x00, 0x05, 0, 0, 0, 0, 0, 0, 0, 0}
	recs := Decode(payload)
	if len(recs) != 0 {
		t.Fatalf("expected 0 records for truncated datagram, got %d", len(recs))
	}
}

func TestCountExceedsCapacity(t *testing.T) {
	// header claims 5 records but only one fits
	payload := append(buildHeader(5), buildRecord([4]byte{1, 1, 1, 1}, [4]byte{2, 2, 2, 2}, 1, 2, 17)...)
	recs := Decode(payload)
	if len(recs) != 1 {
		t.Fatalf("expected decoder to cap at available records, got %d", len(recs))
	}
}

func TestVersionMismatch(t *testing.T) {
	payload := make([]byte, headerLength+recordLength)
	payload[0], payload[1] = 0x00, 0x09 // version 9, not 5
	recs := Decode(payload)
	if len(recs) != 0 {
		t.Fatalf("expected 0 records for version mismatch, got %d", len(recs))
	}
}
