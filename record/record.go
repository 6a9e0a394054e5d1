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

// Package record holds the output unit of every decoder in this module
// (Record) and the single-field decoding rules shared by the template-driven
// decoders (netflow9, ipfix).
package record

import "fmt"

// Field is one named entry of a Record. Order of Fields within a Record
// mirrors the order fields appear on the wire.
type Field struct {
	Name  string
	Value interface{}
}

// Record is an ordered mapping from field name to typed value, tagged with
// the decoder that produced it. Records are the sole output unit of this
// module; downstream consumers own them once emitted.
type Record struct {
	FlowType string
	Fields   []Field
}

// New creates an empty Record tagged with flowType.
func New(flowType string) *Record {
	return &Record{FlowType: flowType}
}

// Set appends a named field to the record. Set does not deduplicate by
// name: a decoder that emits the same name twice (e.g. a malformed
// template) will produce a Record with both entries, in wire order.
func (r *Record) Set(name string, value interface{}) {
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Get returns the value of the first field with the given name.
func (r *Record) Get(name string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Map flattens the record into a plain map, which is what most downstream
// sinks (JSON encoders, event buses) actually want. Field order is lost;
// use Fields directly when order matters.
func (r *Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Fields)+1)
	m["flow_type"] = r.FlowType
	for _, f := range r.Fields {
		m[f.Name] = f.Value
	}
	return m
}

func (r *Record) String() string {
	return fmt.Sprintf("%s%v", r.FlowType, r.Map())
}
