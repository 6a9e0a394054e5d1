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

// Package ipfix decodes RFC 7011 IPFIX messages: a 16-byte header
// followed by a sequence of sets carrying template definitions,
// options-template definitions, or data records keyed to a previously
// learned template (spec.md §4.5). The structure mirrors netflow9's
// decoder.go closely, the two protocols being structurally almost
// identical; the differences are the header width, the template/data
// set id numbering, and the per-field enterprise bit.
package ipfix

import (
	"encoding/binary"

	"github.com/flowplane/ingest/record"
	"github.com/flowplane/ingest/template"
)

const (
	headerLength = 16
	setHeaderLen = 4

	setIDTemplate        uint16 = 2
	setIDOptionsTemplate uint16 = 3
	setIDDataMin         uint16 = 256

	// enterpriseBit marks an IE id as enterprise-scoped (RFC 7011 §3.2).
	enterpriseBit uint16 = 0x8000

	// FlowType tags data records produced from an IPFIX data set.
	FlowType = "ipfix_data"
	// HeaderFlowType tags the single fallback record emitted when a
	// message produced no data records.
	HeaderFlowType = "ipfix"
)

type header struct {
	version             uint16
	length              uint16
	exportTime          uint32
	sequenceNumber      uint32
	observationDomainID uint32
}

// Decode parses an IPFIX message from peer, learning templates into store
// and decoding any data sets whose template is already known. Like
// netflow9.Decode, it never returns an error.
func Decode(payload []byte, peer string, store template.Store) []*record.Record {
	if len(payload) < headerLength {
		return nil
	}
	if binary.BigEndian.Uint16(payload[0:2]) != 10 {
		return nil
	}

	h := header{
		version:             binary.BigEndian.Uint16(payload[0:2]),
		length:              binary.BigEndian.Uint16(payload[2:4]),
		exportTime:          binary.BigEndian.Uint32(payload[4:8]),
		sequenceNumber:      binary.BigEndian.Uint32(payload[8:12]),
		observationDomainID: binary.BigEndian.Uint32(payload[12:16]),
	}

	var records []*record.Record
	body := payload[headerLength:]

	for len(body) > 0 {
		if len(body) < setHeaderLen {
			break
		}
		setID := binary.BigEndian.Uint16(body[0:2])
		setLength := binary.BigEndian.Uint16(body[2:4])
		if setLength < setHeaderLen {
			break
		}
		if int(setLength) > len(body) {
			break
		}

		setBody := body[setHeaderLen:setLength]
		body = body[setLength:]

		switch {
		case setID == setIDTemplate:
			decodeTemplateSet(setBody, peer, h.observationDomainID, false, store)
		case setID == setIDOptionsTemplate:
			decodeOptionsTemplateSet(setBody, peer, h.observationDomainID, store)
		case setID >= setIDDataMin:
			key := template.Key{Peer: peer, Domain: h.observationDomainID, TemplateID: setID}
			tmpl, ok := store.Lookup(key)
			if !ok {
				continue
			}
			records = append(records, decodeDataSet(setBody, tmpl, setID, h.observationDomainID)...)
		default:
			// reserved set id
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
	r.Set("length", h.length)
	r.Set("export_time", h.exportTime)
	r.Set("sequence_number", h.sequenceNumber)
	r.Set("observation_domain_id", h.observationDomainID)
	return r
}

// decodeFieldSpecs walks a run of IPFIX field specifiers: 2 bytes IE id
// (top bit = enterprise flag), 2 bytes length, and, when the enterprise
// bit is set, an additional 4-byte enterprise id (spec.md §3, TemplateField).
func decodeFieldSpecs(b []byte, count int) []template.Field {
	fields := make([]template.Field, 0, count)
	for i := 0; i < count; i++ {
		if len(b) < 4 {
			break
		}
		rawID := binary.BigEndian.Uint16(b[0:2])
		length := binary.BigEndian.Uint16(b[2:4])
		b = b[4:]

		ie := rawID &^ enterpriseBit
		var enterpriseID uint32
		if rawID&enterpriseBit != 0 {
			if len(b) < 4 {
				break
			}
			enterpriseID = binary.BigEndian.Uint32(b[0:4])
			b = b[4:]
		}

		fields = append(fields, template.Field{IE: ie, Length: length, EnterpriseID: enterpriseID})
	}
	return fields
}

func decodeTemplateSet(b []byte, peer string, domain uint32, isOptions bool, store template.Store) {
	for len(b) >= 4 {
		templateID := binary.BigEndian.Uint16(b[0:2])
		fieldCount := binary.BigEndian.Uint16(b[2:4])
		b = b[4:]

		fields := decodeFieldSpecs(b, int(fieldCount))
		if len(fields) == 0 {
			break
		}
		consumed := 0
		for _, f := range fields {
			if f.EnterpriseID != 0 {
				consumed += 8
			} else {
				consumed += 4
			}
		}
		if consumed > len(b) {
			consumed = len(b)
		}
		b = b[consumed:]

		store.Insert(template.Key{Peer: peer, Domain: domain, TemplateID: templateID}, &template.Template{
			TemplateID: templateID,
			Fields:     fields,
			IsOptions:  isOptions,
		})
	}
}

// decodeOptionsTemplateSet parses RFC 7011 §3.4.2.2 options template
// records: template_id, field_count, scope_field_count, then field_count
// field specifiers (the first scope_field_count of which are scope
// fields). As with netflow9, scope and option fields are concatenated
// into one Fields list; the split is recognized but not semantically
// distinguished (spec.md §9).
func decodeOptionsTemplateSet(b []byte, peer string, domain uint32, store template.Store) {
	for len(b) >= 6 {
		templateID := binary.BigEndian.Uint16(b[0:2])
		fieldCount := binary.BigEndian.Uint16(b[2:4])
		// scopeFieldCount at b[4:6] is recognized but not separately stored
		b = b[6:]

		fields := decodeFieldSpecs(b, int(fieldCount))
		if len(fields) == 0 {
			break
		}
		consumed := 0
		for _, f := range fields {
			if f.EnterpriseID != 0 {
				consumed += 8
			} else {
				consumed += 4
			}
		}
		if consumed > len(b) {
			consumed = len(b)
		}
		b = b[consumed:]

		store.Insert(template.Key{Peer: peer, Domain: domain, TemplateID: templateID}, &template.Template{
			TemplateID: templateID,
			Fields:     fields,
			IsOptions:  true,
		})
	}
}

func decodeDataSet(b []byte, tmpl *template.Template, templateID uint16, domain uint32) []*record.Record {
	width := tmpl.Width()
	if width == 0 {
		return nil
	}

	var records []*record.Record
	for len(b) > 0 {
		rec := record.New(FlowType)
		rec.Set("template_id", templateID)
		rec.Set("observation_domain_id", domain)

		off := 0
		for _, f := range tmpl.Fields {
			if off+int(f.Length) > len(b) {
				// a trailing record shorter than the template keeps only
				// the fields whose whole window is present
				break
			}
			window := b[off : off+int(f.Length)]
			off += int(f.Length)
			name, value, ok := record.DecodeField(record.ProtocolIPFIX, f.IE, f.EnterpriseID, window)
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
