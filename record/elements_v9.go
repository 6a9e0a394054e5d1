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

// elementsV9 covers the NetFlow v9 (RFC 3954) field type numbers this
// module recognizes out of the box. It intentionally only names the IEs
// that appear in ordinary Cisco-style exports; anything else falls
// through to the unknown_field_<ie> path in DecodeField.
var elementsV9 = catalog{
	1:  {"in_bytes", kindInt},
	2:  {"in_pkts", kindInt},
	3:  {"flows", kindInt},
	4:  {"protocol", kindInt},
	5:  {"src_tos", kindInt},
	6:  {"tcp_flags", kindInt},
	7:  {"l4_src_port", kindInt},
	8:  {"ipv4_src_addr", kindIPv4},
	9:  {"src_mask", kindInt},
	10: {"input_snmp", kindInt},
	11: {"l4_dst_port", kindInt},
	12: {"ipv4_dst_addr", kindIPv4},
	13: {"dst_mask", kindInt},
	14: {"output_snmp", kindInt},
	15: {"ipv4_next_hop", kindIPv4},
	16: {"src_as", kindInt},
	17: {"dst_as", kindInt},
	18: {"bgp_ipv4_next_hop", kindIPv4},
	21: {"last_switched", kindInt},
	22: {"first_switched", kindInt},
	23: {"out_bytes", kindInt},
	24: {"out_pkts", kindInt},
	27: {"ipv6_src_addr", kindIPv6},
	28: {"ipv6_dst_addr", kindIPv6},
	29: {"ipv6_src_mask", kindInt},
	30: {"ipv6_dst_mask", kindInt},
	32: {"icmp_type", kindInt},
	34: {"sampling_interval", kindInt},
	35: {"sampling_algorithm", kindInt},
	38: {"engine_type", kindInt},
	39: {"engine_id", kindInt},
	40: {"total_bytes_exp", kindInt},
	41: {"total_pkts_exp", kindInt},
	42: {"total_flows_exp", kindInt},
	56: {"in_src_mac", kindMAC},
	57: {"out_dst_mac", kindMAC},
	58: {"src_vlan", kindInt},
	59: {"dst_vlan", kindInt},
	60: {"ip_protocol_version", kindInt},
	61: {"direction", kindInt},
	62: {"ipv6_next_hop", kindIPv6},
	80: {"in_dst_mac", kindMAC},
	81: {"out_src_mac", kindMAC},
	88: {"fragment_offset", kindInt},
}
