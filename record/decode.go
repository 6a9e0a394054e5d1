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

package record

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net"
)

// Protocol selects which IE catalog a decode call consults, since v9 and
// IPFIX assign overlapping but non-identical semantics to the same
// numeric IE (spec.md §4.1).
type Protocol int

const (
	ProtocolNetflowV9 Protocol = iota
	ProtocolIPFIX
)

func (p Protocol) catalog() catalog {
	if p == ProtocolIPFIX {
		return elementsIPFIX
	}
	return elementsV9
}

// DecodeField turns one typed field (IE number, optional enterprise
// number, and the exact byte window the template allocated to it) into
// a name and value; ok is false when the field is skipped. It never reads
// past data.
//
// DecodeField is the sole implementation of the field-decoder contract in
// spec.md §4.1: it is deliberately lossless for fields it cannot name
// (unknown_field_<ie>) or whose owner it cannot resolve
// (enterprise_<eid>_<ie>), and silently drops fields whose window doesn't
// match any width it knows how to interpret, rather than erroring.
func DecodeField(proto Protocol, ie uint16, enterpriseID uint32, data []byte) (name string, value interface{}, ok bool) {
	if enterpriseID != 0 {
		return fmt.Sprintf("enterprise_%d_%d", enterpriseID, ie), base64.StdEncoding.EncodeToString(data), true
	}

	e, found := proto.catalog().lookup(ie)
	if !found {
		return fmt.Sprintf("unknown_field_%d", ie), base64.StdEncoding.EncodeToString(data), true
	}

	switch e.kind {
	case kindIPv4:
		if len(data) != 4 {
			return "", nil, false
		}
		return e.name, net.IP(data).String(), true
	case kindIPv6:
		if len(data) != 16 {
			return "", nil, false
		}
		return e.name, net.IP(data).String(), true
	case kindMAC:
		if len(data) != 6 {
			return "", nil, false
		}
		return e.name, net.HardwareAddr(data).String(), true
	case kindBytes:
		return e.name, base64.StdEncoding.EncodeToString(data), true
	default: // kindInt
		v, ok := decodeUint(data)
		if !ok {
			return "", nil, false
		}
		return e.name, v, true
	}
}

// decodeUint reads a big-endian unsigned integer of width 1, 2, 4, or 8
// bytes. Any other width is not a width this module's integer IEs are
// defined at, so the caller treats it as field-length authority failure
// and skips the field (spec.md §4.1, §7 "field shorter than expected").
func decodeUint(data []byte) (uint64, bool) {
	switch len(data) {
	case 1:
		return uint64(data[0]), true
	case 2:
		return uint64(binary.BigEndian.Uint16(data)), true
	case 4:
		return uint64(binary.BigEndian.Uint32(data)), true
	case 8:
		return binary.BigEndian.Uint64(data), true
	default:
		return 0, false
	}
}
