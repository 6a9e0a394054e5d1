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

// Package sflow decodes the sFlow v5 agent header and the sample-level
// header of its first recognized (flow or counter) sample (spec.md §4.6).
// It does not walk the flow records nested inside a sample: that is a
// recognized limitation carried over unchanged from spec.md.
package sflow

import (
	"encoding/binary"
	"net"

	"github.com/flowplane/ingest/record"
)

const (
	headerLength      = 28
	sampleHeaderLen   = 8
	addressTypeIPv4   = 1
	addressTypeIPv6   = 2

	sampleTypeFlow    = 1
	sampleTypeCounter = 2

	// FlowType tags every record this decoder emits.
	FlowType = "sflow"
)

// Decode parses an sFlow v5 datagram. A version mismatch or a payload
// shorter than the agent header yields zero records. Only the first
// recognized sample is enriched into the emitted record, per spec.md
// §4.6's contract ("emit one enriched record per datagram describing
// the agent and its first sample").
func Decode(payload []byte) []*record.Record {
	if len(payload) < headerLength {
		return nil
	}
	if binary.BigEndian.Uint32(payload[0:4]) != 5 {
		return nil
	}

	addressType := binary.BigEndian.Uint32(payload[4:8])
	var agentAddr string
	var agentLen int
	switch addressType {
	case addressTypeIPv6:
		if len(payload) < 8+16 {
			return nil
		}
		agentAddr = net.IP(payload[8 : 8+16]).String()
		agentLen = 16
	default: // addressTypeIPv4 and anything else defaults to 4 bytes, matching the de-facto wire shape
		if len(payload) < 8+4 {
			return nil
		}
		agentAddr = net.IP(payload[8 : 8+4]).String()
		agentLen = 4
	}

	off := 8 + agentLen
	if len(payload) < off+16 {
		return nil
	}
	subAgentID := binary.BigEndian.Uint32(payload[off : off+4])
	sequenceNumber := binary.BigEndian.Uint32(payload[off+4 : off+8])
	sysUptime := binary.BigEndian.Uint32(payload[off+8 : off+12])
	numSamples := binary.BigEndian.Uint32(payload[off+12 : off+16])
	off += 16

	r := record.New(FlowType)
	r.Set("agent_address", agentAddr)
	r.Set("sub_agent_id", subAgentID)
	r.Set("sequence_number", sequenceNumber)
	r.Set("sys_uptime", sysUptime)
	r.Set("num_samples", numSamples)

	body := payload[off:]
	for i := uint32(0); i < numSamples && len(body) >= sampleHeaderLen; i++ {
		sampleType := binary.BigEndian.Uint32(body[0:4])
		sampleLength := binary.BigEndian.Uint32(body[4:8])
		samplePayload := body[sampleHeaderLen:]

		if uint64(sampleLength) > uint64(len(samplePayload)) {
			// partial sample: terminate the walk (spec.md §4.6)
			break
		}

		switch sampleType {
		case sampleTypeFlow, sampleTypeCounter:
			decodeSampleHeader(r, sampleType, samplePayload[:sampleLength])
			return []*record.Record{r}
		default:
			// unknown sample type: skip by advancing sampleLength bytes
		}

		body = samplePayload[sampleLength:]
	}

	return []*record.Record{r}
}

// decodeSampleHeader extracts the sample-level header fields common to
// flow and counter samples (spec.md §4.6) and sets them on r, prefixed
// with sflow_ so they don't collide with the agent-level fields already
// set by Decode.
func decodeSampleHeader(r *record.Record, sampleType uint32, b []byte) {
	if sampleType == sampleTypeFlow {
		r.Set("sflow_sample_type", "flow_sample")
	} else {
		r.Set("sflow_sample_type", "counter_sample")
	}

	if len(b) < 4 {
		return
	}
	r.Set("sflow_sequence_number", binary.BigEndian.Uint32(b[0:4]))
	if len(b) < 8 {
		return
	}
	// source_id packs (source_id_type << 24 | source_id_index) per the
	// sFlow v5 spec.
	sourceID := binary.BigEndian.Uint32(b[4:8])
	r.Set("sflow_source_id_type", sourceID>>24)
	r.Set("sflow_source_id_index", sourceID&0x00FFFFFF)

	if sampleType != sampleTypeFlow {
		return
	}
	if len(b) < 24 {
		return
	}
	r.Set("sflow_sampling_rate", binary.BigEndian.Uint32(b[8:12]))
	r.Set("sflow_sample_pool", binary.BigEndian.Uint32(b[12:16]))
	r.Set("sflow_drops", binary.BigEndian.Uint32(b[16:20]))
	r.Set("sflow_num_flow_records", binary.BigEndian.Uint32(b[20:24]))
}
