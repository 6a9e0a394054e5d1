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

// Package template implements the exporter-scoped template cache shared by
// the netflow9 and ipfix decoders.
package template

import (
	"fmt"
	"time"
)

// Key identifies a template uniquely across every exporter this process
// collects from. Keying by peer address (in addition to observation
// domain and template id) is deliberate: two distinct routers advertising
// conflicting layouts for the same numeric template id must not collide
// (spec.md §9, "Template identity across peers").
type Key struct {
	Peer       string
	Domain     uint32
	TemplateID uint16
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Peer, k.Domain, k.TemplateID)
}

// Field is one entry of a Template's field layout: the information
// element it decodes into, the byte width the template declares for it,
// and the enterprise number if the IE's top bit was set on the wire.
type Field struct {
	IE           uint16
	Length       uint16
	EnterpriseID uint32
}

// Template is a layout descriptor learned from a template/options-template
// set. Field order is significant: it defines the byte layout of every
// data record that references TemplateID.
type Template struct {
	TemplateID uint16
	Fields     []Field
	IsOptions  bool

	insertedAt time.Time
}

// Width returns the total byte width of a data record built from this
// template, i.e. the sum of its fields' declared lengths.
func (t *Template) Width() int {
	w := 0
	for _, f := range t.Fields {
		w += int(f.Length)
	}
	return w
}
