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

// Package netflow5 decodes the fixed-layout NetFlow v5 datagram: a 24-byte
// header followed by up to 30 fixed 48-byte flow records (spec.md §4.3).
package netflow5

import (
	"encoding/binary"
	"net"

	"github.com/flowplane/ingest/record"
)

const (
	headerLength = 24
	recordLength = 48
	// FlowType is the flow_type tag attached to every record this
	// decoder emits.
	FlowType = "netflow_v5"
)

var protocolNames = map[uint8]string{
	1:  "ICMP",
	6:  "TCP",
	17: "UDP",
}

// Decode parses a NetFlow v5 datagram. A version mismatch or a payload
// shorter than the header yields zero records, not an error: this
// decoder never reports an error upward (spec.md §7).
func Decode(payload []byte) []*record.Record {
	if len(payload) < headerLength {
		return nil
	}
	if binary.BigEndian.Uint16(payload[0:2]) != 5 {
		return nil
	}

	count := int(binary.BigEndian.Uint16(payload[2:4]))

	// If count overstates how many 48-byte records actually fit in the
	// datagram, only decode as many as fit (spec.md §4.3 policy).
	available := (len(payload) - headerLength) / recordLength
	if count > available {
		count = available
	}

	records := make([]*record.Record, 0, count)
	for i := 0; i < count; i++ {
		off := headerLength + i*recordLength
		records = append(records, decodeRecord(payload[off:off+recordLength]))
	}
	return records
}

func decodeRecord(b []byte) *record.Record {
	r := record.New(FlowType)

	srcAddr := net.IP(b[0:4]).String()
	dstAddr := net.IP(b[4:8]).String()
	nextHop := net.IP(b[8:12]).String()
	inputIf := binary.BigEndian.Uint16(b[12:14])
	outputIf := binary.BigEndian.Uint16(b[14:16])
	packets := binary.BigEndian.Uint32(b[16:20])
	octets := binary.BigEndian.Uint32(b[20:24])
	first := binary.BigEndian.Uint32(b[24:28])
	last := binary.BigEndian.Uint32(b[28:32])
	srcPort := binary.BigEndian.Uint16(b[32:34])
	dstPort := binary.BigEndian.Uint16(b[34:36])
	// b[36] is pad1
	tcpFlags := b[37]
	protocol := b[38]
	tos := b[39]
	srcAS := binary.BigEndian.Uint16(b[40:42])
	dstAS := binary.BigEndian.Uint16(b[42:44])
	srcMask := b[44]
	dstMask := b[45]
	// b[46:48] is pad2

	r.Set("src_addr", srcAddr)
	r.Set("dst_addr", dstAddr)
	r.Set("nexthop", nextHop)
	r.Set("input_if", inputIf)
	r.Set("output_if", outputIf)
	r.Set("packets", packets)
	r.Set("octets", octets)
	r.Set("first_uptime", first)
	r.Set("last_uptime", last)
	r.Set("src_port", srcPort)
	r.Set("dst_port", dstPort)
	r.Set("tcp_flags", tcpFlags)
	r.Set("protocol", protocol)
	r.Set("tos", tos)
	r.Set("src_as", srcAS)
	r.Set("dst_as", dstAS)
	r.Set("src_mask", srcMask)
	r.Set("dst_mask", dstMask)

	name, ok := protocolNames[protocol]
	if !ok {
		name = "Unknown"
	}
	r.Set("protocol_name", name)

	if last > first {
		r.Set("flow_duration_ms", last-first)
	}

	return r
}
