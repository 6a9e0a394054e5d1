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

// kind classifies how DecodeField formats the bytes of an information
// element. It stands in for the teacher's DataType hierarchy
// (ipv4Address/ipv6Address/macAddress/... in data_types.go), collapsed
// to the handful of wire shapes this module's flat Record actually needs.
type kind int

const (
	kindInt kind = iota
	kindIPv4
	kindIPv6
	kindMAC
	kindBytes
)

// element is one catalog entry: the human name IPFIX/NetFlow v9 assign to
// an information element number, and how to format its bytes.
type element struct {
	name string
	kind kind
}

// catalog maps IE numbers to elements. v9 and IPFIX each get their own
// catalog (elementsV9, elementsIPFIX) per spec.md §4.1: the two protocols
// assign overlapping but not identical semantics to some numbers.
type catalog map[uint16]element

func (c catalog) lookup(ie uint16) (element, bool) {
	e, ok := c[ie]
	return e, ok
}
