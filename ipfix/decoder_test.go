package ipfix

import (
	"encoding/binary"
	"testing"

	"github.com/flowplane/ingest/template"
)

func ipfixHeader(length uint16, domain uint32) []byte {
	b := make([]byte, headerLength)
	binary.BigEndian.PutUint16(b[0:2], 10)
	binary.BigEndian.PutUint16(b[2:4], length)
	binary.BigEndian.PutUint32(b[12:16], domain)
	return b
}

func templateSet(templateID uint16, fields [][2]uint16) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint16(body[0:2], templateID)
	binary.BigEndian.PutUint16(body[2:4], uint16(len(fields)))
	for _, f := range fields {
		fb := make([]byte, 4)
		binary.BigEndian.PutUint16(fb[0:2], f[0])
		binary.BigEndian.PutUint16(fb[2:4], f[1])
		body = append(body, fb...)
	}

	set := make([]byte, 4)
	binary.BigEndian.PutUint16(set[0:2], setIDTemplate)
	binary.BigEndian.PutUint16(set[2:4], uint16(4+len(body)))
	return append(set, body...)
}

func optionsTemplateSet(templateID uint16, scopeFields, optionFields [][2]uint16) []byte {
	body := make([]byte, 6)
	binary.BigEndian.PutUint16(body[0:2], templateID)
	binary.BigEndian.PutUint16(body[2:4], uint16(len(scopeFields)+len(optionFields)))
	binary.BigEndian.PutUint16(body[4:6], uint16(len(scopeFields)))
	for _, f := range append(append([][2]uint16{}, scopeFields...), optionFields...) {
		fb := make([]byte, 4)
		binary.BigEndian.PutUint16(fb[0:2], f[0])
		binary.BigEndian.PutUint16(fb[2:4], f[1])
		body = append(body, fb...)
	}

	set := make([]byte, 4)
	binary.BigEndian.PutUint16(set[0:2], setIDOptionsTemplate)
	binary.BigEndian.PutUint16(set[2:4], uint16(4+len(body)))
	return append(set, body...)
}

func dataSet(templateID uint16, data []byte) []byte {
	set := make([]byte, 4)
	binary.BigEndian.PutUint16(set[0:2], templateID)
	binary.BigEndian.PutUint16(set[2:4], uint16(4+len(data)))
	return append(set, data...)
}

// Scenario B from spec.md §8: IPFIX template set defining an
// enterprise-scoped field.
func TestScenarioB(t *testing.T) {
	store := template.NewMemoryStore()
	peer := "peer"

	// template body: template_id=256, field_count=1, then one enterprise
	// field spec: rawId=0x8001 (ie=1, enterprise bit set), length=4,
	// enterprise_id=12345
	body := make([]byte, 0)
	tb := make([]byte, 4)
	binary.BigEndian.PutUint16(tb[0:2], 256)
	binary.BigEndian.PutUint16(tb[2:4], 1)
	body = append(body, tb...)

	fb := make([]byte, 8)
	binary.BigEndian.PutUint16(fb[0:2], 0x8001)
	binary.BigEndian.PutUint16(fb[2:4], 4)
	binary.BigEndian.PutUint32(fb[4:8], 12345)
	body = append(body, fb...)

	set := make([]byte, 4)
	binary.BigEndian.PutUint16(set[0:2], setIDTemplate)
	binary.BigEndian.PutUint16(set[2:4], uint16(4+len(body)))
	set = append(set, body...)

	datagram := append(ipfixHeader(uint16(headerLength+len(set)), 1), set...)

	Decode(datagram, peer, store)

	key := template.Key{Peer: peer, Domain: 1, TemplateID: 256}
	tmpl, ok := store.Lookup(key)
	if !ok {
		t.Fatalf("expected template to be stored under %v", key)
	}
	if len(tmpl.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(tmpl.Fields))
	}
	f := tmpl.Fields[0]
	if f.IE != 1 || f.EnterpriseID != 12345 {
		t.Fatalf("expected ie=1 enterprise=12345, got ie=%d enterprise=%d", f.IE, f.EnterpriseID)
	}
}

func TestDataSetRequiresTemplate(t *testing.T) {
	store := template.NewMemoryStore()
	set := make([]byte, 4)
	binary.BigEndian.PutUint16(set[0:2], 999)
	binary.BigEndian.PutUint16(set[2:4], 8)
	set = append(set, []byte{1, 2, 3, 4}...)

	datagram := append(ipfixHeader(uint16(headerLength+len(set)), 1), set...)
	recs := Decode(datagram, "peer", store)
	for _, r := range recs {
		if r.FlowType == FlowType {
			t.Fatalf("expected no data records for unknown template, got %+v", r)
		}
	}
}

func TestMalformedSetLengthIsHeaderOnly(t *testing.T) {
	store := template.NewMemoryStore()
	set := make([]byte, 4)
	binary.BigEndian.PutUint16(set[0:2], 256)
	binary.BigEndian.PutUint16(set[2:4], 1000) // exceeds remaining payload

	datagram := append(ipfixHeader(uint16(headerLength+len(set)), 1), set...)
	recs := Decode(datagram, "peer", store)
	if len(recs) != 1 || recs[0].FlowType != HeaderFlowType {
		t.Fatalf("expected single header record, got %+v", recs)
	}
}

// An options template set is learned and tagged IsOptions: true, with
// its scope and option fields both present (spec.md §9's
// options-template Open Question decision).
func TestOptionsTemplateSetIsLearnedAndTagged(t *testing.T) {
	store := template.NewMemoryStore()
	peer := "peer"

	set := optionsTemplateSet(512,
		[][2]uint16{{1, 4}},          // scope field: ingress interface
		[][2]uint16{{8, 4}, {12, 4}}, // option fields
	)
	datagram := append(ipfixHeader(uint16(headerLength+len(set)), 1), set...)
	Decode(datagram, peer, store)

	key := template.Key{Peer: peer, Domain: 1, TemplateID: 512}
	tmpl, ok := store.Lookup(key)
	if !ok {
		t.Fatalf("expected options template to be stored under %v", key)
	}
	if !tmpl.IsOptions {
		t.Fatalf("expected IsOptions to be true")
	}
	if len(tmpl.Fields) != 3 {
		t.Fatalf("expected 3 fields (1 scope + 2 option), got %d", len(tmpl.Fields))
	}
}

// Property 6: decoding the same datagram twice against a converged
// template store produces identical record sequences.
func TestIdempotentDecode(t *testing.T) {
	store := template.NewMemoryStore()
	peer := "peer"

	tset := templateSet(256, [][2]uint16{{8, 4}, {12, 4}})
	Decode(append(ipfixHeader(uint16(headerLength+len(tset)), 1), tset...), peer, store)

	dset := dataSet(256, []byte{0xC0, 0xA8, 0x01, 0x01, 0xC0, 0xA8, 0x01, 0x02})
	d := append(ipfixHeader(uint16(headerLength+len(dset)), 1), dset...)

	first := Decode(d, peer, store)
	second := Decode(d, peer, store)

	if len(first) != len(second) {
		t.Fatalf("expected equal record counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].FlowType != second[i].FlowType {
			t.Fatalf("record %d: flow type mismatch %q vs %q", i, first[i].FlowType, second[i].FlowType)
		}
		if len(first[i].Fields) != len(second[i].Fields) {
			t.Fatalf("record %d: field count mismatch", i)
		}
		for j := range first[i].Fields {
			if first[i].Fields[j] != second[i].Fields[j] {
				t.Fatalf("record %d field %d: %+v vs %+v", i, j, first[i].Fields[j], second[i].Fields[j])
			}
		}
	}
}
