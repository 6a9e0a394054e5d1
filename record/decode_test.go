package record

import "testing"

func TestDecodeFieldKnownInt(t *testing.T) {
	name, val, ok := DecodeField(ProtocolNetflowV9, 7, 0, []byte{0x00, 0x50}) // l4_src_port = 80
	if !ok {
		t.Fatalf("expected ok")
	}
	if name != "l4_src_port" {
		t.Fatalf("got name %q", name)
	}
	if val.(uint64) != 80 {
		t.Fatalf("got value %v", val)
	}
}

func TestDecodeFieldIPv4(t *testing.T) {
	name, val, ok := DecodeField(ProtocolNetflowV9, 8, 0, []byte{192, 168, 1, 1})
	if !ok || name != "ipv4_src_addr" || val != "192.168.1.1" {
		t.Fatalf("got %q %v %v", name, val, ok)
	}
}

func TestDecodeFieldShortIntSkipped(t *testing.T) {
	// a 3-byte window is not a supported integer width
	_, _, ok := DecodeField(ProtocolNetflowV9, 7, 0, []byte{0x01, 0x02, 0x03})
	if ok {
		t.Fatalf("expected field to be skipped for unsupported width")
	}
}

func TestDecodeFieldUnknown(t *testing.T) {
	name, val, ok := DecodeField(ProtocolIPFIX, 0xfffe, 0, []byte{1, 2, 3})
	if !ok {
		t.Fatalf("expected unknown field fallback to succeed")
	}
	if name != "unknown_field_65534" {
		t.Fatalf("got name %q", name)
	}
	if val != "AQID" {
		t.Fatalf("got base64 %v", val)
	}
}

func TestDecodeFieldEnterprise(t *testing.T) {
	name, _, ok := DecodeField(ProtocolIPFIX, 1, 12345, []byte{0xde, 0xad, 0xbe, 0xef})
	if !ok || name != "enterprise_12345_1" {
		t.Fatalf("got %q %v", name, ok)
	}
}

func TestDecodeFieldMAC(t *testing.T) {
	name, val, ok := DecodeField(ProtocolIPFIX, 56, 0, []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55})
	if !ok || name != "source_mac_address" || val != "00:11:22:33:44:55" {
		t.Fatalf("got %q %v %v", name, val, ok)
	}
}
