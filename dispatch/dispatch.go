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

// Package dispatch peeks at a datagram's version field and routes it to
// the matching decoder (spec.md §4.7). It is stateless beyond the
// template.Store it is handed: one Dispatcher can safely serve many
// peers concurrently so long as the store itself is peer-scoped by key,
// which template.Store already is.
package dispatch

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/flowplane/ingest/ipfix"
	"github.com/flowplane/ingest/netflow5"
	"github.com/flowplane/ingest/netflow9"
	"github.com/flowplane/ingest/record"
	"github.com/flowplane/ingest/sflow"
	"github.com/flowplane/ingest/template"
)

// UnknownFlowType tags the single fallback record emitted for a
// datagram that matches no enabled protocol.
const UnknownFlowType = "unknown"

// Protocols selects which decoders a Dispatcher will route to. A zero
// value Protocols enables nothing; the caller must opt protocols in.
type Protocols struct {
	NetflowV5 bool
	NetflowV9 bool
	IPFIX     bool
	SFlow     bool
}

// Dispatcher routes datagrams to the decoder matching their version
// field, and optionally attaches the raw payload to every record it
// emits (spec.md §4.7 item 5).
type Dispatcher struct {
	Protocols      Protocols
	IncludeRawData bool
}

// New creates a Dispatcher for the given protocol selection.
func New(protocols Protocols, includeRawData bool) *Dispatcher {
	return &Dispatcher{Protocols: protocols, IncludeRawData: includeRawData}
}

// Dispatch decodes payload from peer using store for any template-driven
// protocol. A payload under 4 bytes, or one whose version field matches
// no enabled protocol, yields a single UnknownFlowType record describing
// what was seen (spec.md §4.7 property 1). Dispatch never panics and
// never returns an error: every failure mode degrades to a record.
func (d *Dispatcher) Dispatch(payload []byte, peer string, store template.Store) []*record.Record {
	var records []*record.Record

	switch {
	case len(payload) < 4:
		records = []*record.Record{d.unknownRecord(payload)}
	case d.Protocols.NetflowV5 && binary.BigEndian.Uint16(payload[0:2]) == 5:
		records = netflow5.Decode(payload)
	case d.Protocols.NetflowV9 && binary.BigEndian.Uint16(payload[0:2]) == 9:
		records = netflow9.Decode(payload, peer, store)
	case d.Protocols.IPFIX && binary.BigEndian.Uint16(payload[0:2]) == 10:
		records = ipfix.Decode(payload, peer, store)
	case d.Protocols.SFlow && binary.BigEndian.Uint32(payload[0:4]) == 5:
		records = sflow.Decode(payload)
	default:
		records = []*record.Record{d.unknownRecord(payload)}
	}

	if len(records) == 0 {
		records = []*record.Record{d.unknownRecord(payload)}
	}

	if d.IncludeRawData {
		raw := base64.StdEncoding.EncodeToString(payload)
		for _, r := range records {
			r.Set("raw_data", raw)
		}
	}

	return records
}

func (d *Dispatcher) unknownRecord(payload []byte) *record.Record {
	r := record.New(UnknownFlowType)
	var versionByte uint16
	if len(payload) >= 2 {
		versionByte = binary.BigEndian.Uint16(payload[0:2])
	}
	r.Set("version", versionByte)
	r.Set("payload_length", len(payload))
	return r
}
