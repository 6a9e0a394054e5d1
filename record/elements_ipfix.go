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

// elementsIPFIX covers the IANA IPFIX Information Element registry
// entries this module recognizes (RFC 7011 §3.2, RFC 5102). IPFIX
// reuses most of NetFlow v9's low IE numbers for compatibility, but
// assigns additional high-numbered IEs (timestamps with millisecond/
// microsecond/nanosecond resolution, flow direction, NAT fields, ...)
// that v9 never defined, hence the separate catalog.
var elementsIPFIX = catalog{
	1:   {"octet_delta_count", kindInt},
	2:   {"packet_delta_count", kindInt},
	4:   {"protocol_identifier", kindInt},
	5:   {"ip_class_of_service", kindInt},
	6:   {"tcp_control_bits", kindInt},
	7:   {"source_transport_port", kindInt},
	8:   {"ipv4_src_addr", kindIPv4},
	9:   {"source_ipv4_prefix_length", kindInt},
	10:  {"ingress_interface", kindInt},
	11:  {"destination_transport_port", kindInt},
	12:  {"ipv4_dst_addr", kindIPv4},
	13:  {"destination_ipv4_prefix_length", kindInt},
	14:  {"egress_interface", kindInt},
	15:  {"ip_next_hop_ipv4_address", kindIPv4},
	16:  {"bgp_source_as_number", kindInt},
	17:  {"bgp_destination_as_number", kindInt},
	21:  {"flow_end_sys_up_time", kindInt},
	22:  {"flow_start_sys_up_time", kindInt},
	23:  {"post_octet_delta_count", kindInt},
	24:  {"post_packet_delta_count", kindInt},
	27:  {"ipv6_src_addr", kindIPv6},
	28:  {"ipv6_dst_addr", kindIPv6},
	29:  {"ipv6_source_prefix_length", kindInt},
	30:  {"ipv6_destination_prefix_length", kindInt},
	32:  {"icmp_type_code_ipv4", kindInt},
	52:  {"minimum_ttl", kindInt},
	53:  {"maximum_ttl", kindInt},
	56:  {"source_mac_address", kindMAC},
	57:  {"post_destination_mac_address", kindMAC},
	58:  {"vlan_id", kindInt},
	60:  {"ip_version", kindInt},
	61:  {"flow_direction", kindInt},
	62:  {"ip_next_hop_ipv6_address", kindIPv6},
	80:  {"destination_mac_address", kindMAC},
	81:  {"post_source_mac_address", kindMAC},
	136: {"flow_end_reason", kindInt},
	152: {"flow_start_milliseconds", kindInt},
	153: {"flow_end_milliseconds", kindInt},
	154: {"flow_start_microseconds", kindInt},
	155: {"flow_end_microseconds", kindInt},
	156: {"flow_start_nanoseconds", kindInt},
	157: {"flow_end_nanoseconds", kindInt},
	225: {"post_nat_source_ipv4_address", kindIPv4},
	226: {"post_nat_destination_ipv4_address", kindIPv4},
	227: {"post_napt_source_transport_port", kindInt},
	228: {"post_napt_destination_transport_port", kindInt},
}
