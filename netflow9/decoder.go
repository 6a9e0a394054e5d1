/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package netflow9 decodes RFC 3954 NetFlow v9 datagrams: a 20-byte
// header followed by a sequence of flowsets carrying template
// definitions, options templates, or data records keyed to a previously
// learned template (spec.md §4.4).
package netflow9

import (
	"encoding/binary"

	"github.com/flowplane/ingest/record"
	"github.com/flowplane/ingest/template"
)

const (
	headerLength     = 20
	flowsetHeaderLen = 4

	setIDTemplate        uint16 = 0
	setIDOptionsTemplate uint16 = 1
	setIDDataMin         uint16 = 256

	// FlowType tags data records produced from a v9 data flowset.
	FlowType = "netflow_v9_data"
	// HeaderFlowType tags the single fallback record emitted when a
	// datagram produced no data records (template-only or malformed).
	HeaderFlowType = "netflow_v9"
)

type header struct {
	version       uint16
	count         uint16
	sysUptime     uint32
	unixSecs      uint32
	flowSequence  uint32
	sourceID      uint32
}

// Decode parses a NetFlow v9 datagram from peer, learning templates into
// store and decoding any data flowsets whose template is already known.
// Decode never returns an error: malformed input degrades to a partial
// or header-only record set, per spec.md §7.
func Decode(payload []byte, peer string, store template.Store) []*record.Record {
	if len(payload) < headerLength {
		return nil
	}
	if binary.BigEndian.Uint16(payload[0:2]) != 9 {
		return nil
	}

	h := header{
		version:      binary.BigEndian.Uint16(payload[0:2]),
		count:        binary.BigEndian.Uint16(payload[2:4]),
		sysUptime:    binary.BigEndian.Uint32(payload[4:8]),
		unixSecs:     binary.BigEndian.Uint32(payload[8:12]),
		flowSequence: binary.BigEndian.Uint32(payload[12:16]),
		sourceID:     binary.BigEndian.Uint32(payload[16:20]),
	}

	var records []*record.Record
	body := payload[headerLength:]

	for len(body) > 0 {
		if len(body) < flowsetHeaderLen {
			break
		}
		setID := binary.BigEndian.Uint16(body[0:2])
		setLength := binary.BigEndian.Uint16(body[2:4])
		if setLength < flowsetHeaderLen {
			// corruption guard (spec.md §4.4): abort flowset walking for
			// this datagram entirely.
			break
		}
		if int(setLength) > len(body) {
			// partial flowset at the end of a truncated datagram
			break
		}

		payloadBytes := body[flowsetHeaderLen:setLength]
		body = body[setLength:]

		switch {
		case setID == setIDTemplate:
			decodeTemplateFlowset(payloadBytes, peer, h.sourceID, false, store)
		case setID == setIDOptionsTemplate:
			decodeOptionsTemplateFlowset(payloadBytes, peer, h.sourceID, store)
		case setID >= setIDDataMin:
			key := template.Key{Peer: peer, Domain: h.sourceID, TemplateID: setID}
			tmpl, ok := store.Lookup(key)
			if !ok {
				continue
			}
			records = append(records, decodeDataFlowset(payloadBytes, tmpl, setID, h.sourceID)...)
		default:
			// reserved set id, neither template nor data; nothing to do
		}
	}

	if len(records) == 0 {
		records = append(records, headerRecord(h))
	}

	return records
}

func headerRecord(h header) *record.Record {
	r := record.New(HeaderFlowType)
	r.Set("version", h.version)
	r.Set("count", h.count)
	r.Set("sys_uptime", h.sysUptime)
	r.Set("unix_secs", h.unixSecs)
	r.Set("flow_sequence", h.flowSequence)
	r.Set("source_id", h.sourceID)
	return r
}

// decodeTemplateFlowset parses one or more (template_id, field_count)
// definitions, each followed by field_count (ie_id, length) entries, and
// inserts each into store keyed by (peer, sourceID, template_id).
func decodeTemplateFlowset(b []byte, peer string, sourceID uint32, isOptions bool, store template.Store) {
	for len(b) >= 4 {
		templateID := binary.BigEndian.Uint16(b[0:2])
		fieldCount := binary.BigEndian.Uint16(b[2:4])
		b = b[4:]

		fields := make([]template.Field, 0, fieldCount)
		for i := 0; i < int(fieldCount); i++ {
			if len(b) < 4 {
				break
			}
			ie := binary.BigEndian.Uint16(b[0:2])
			length := binary.BigEndian.Uint16(b[2:4])
			b = b[4:]
			fields = append(fields, template.Field{IE: ie, Length: length})
		}

		if len(fields) == 0 {
			break
		}

		store.Insert(template.Key{Peer: peer, Domain: sourceID, TemplateID: templateID}, &template.Template{
			TemplateID: templateID,
			Fields:     fields,
			IsOptions:  isOptions,
		})
	}
}

// decodeOptionsTemplateFlowset parses RFC 3954 §6.2 options template
// records (template_id, scope_length, option_length, then that many
// bytes of (ie, length) specs). Scope fields and option fields are
// concatenated into one Fields list and the template is tagged
// IsOptions: this module recognizes the scope/option split but does not
// semantically distinguish it, per spec.md §9.
func decodeOptionsTemplateFlowset(b []byte, peer string, sourceID uint32, store template.Store) {
	for len(b) >= 6 {
		templateID := binary.BigEndian.Uint16(b[0:2])
		scopeLength := binary.BigEndian.Uint16(b[2:4])
		optionLength := binary.BigEndian.Uint16(b[4:6])
		b = b[6:]

		total := int(scopeLength) + int(optionLength)
		if total > len(b) {
			total = len(b)
		}
		specBytes := b[:total]
		b = b[total:]

		var fields []template.Field
		for len(specBytes) >= 4 {
			ie := binary.BigEndian.Uint16(specBytes[0:2])
			length := binary.BigEndian.Uint16(specBytes[2:4])
			specBytes = specBytes[4:]
			fields = append(fields, template.Field{IE: ie, Length: length})
		}

		if len(fields) == 0 {
			break
		}

		store.Insert(template.Key{Peer: peer, Domain: sourceID, TemplateID: templateID}, &template.Template{
			TemplateID: templateID,
			Fields:     fields,
			IsOptions:  true,
		})
	}
}

func decodeDataFlowset(b []byte, tmpl *template.Template, templateID uint16, sourceID uint32) []*record.Record {
	width := tmpl.Width()
	if width == 0 {
		return nil
	}

	var records []*record.Record
	for len(b) > 0 {
		rec := record.New(FlowType)
		rec.Set("template_id", templateID)
		rec.Set("source_id", sourceID)

		off := 0
		for _, f := range tmpl.Fields {
			if off+int(f.Length) > len(b) {
				// a trailing record shorter than the template keeps only
				// the fields whose whole window is present
				break
			}
			window := b[off : off+int(f.Length)]
			off += int(f.Length)
			name, value, ok := record.DecodeField(record.ProtocolNetflowV9, f.IE, f.EnterpriseID, window)
			if ok {
				rec.Set(name, value)
			}
		}
		if off == 0 {
			break
		}
		records = append(records, rec)
		if width >= len(b) {
			break
		}
		b = b[width:]
	}
	return records
}
