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

// Package config decodes the YAML configuration accepted by
// cmd/flowcollectord (spec.md §6).
package config

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxLength           = 64 * 1024
	defaultMaxTemplates        = 1000
	defaultTemplateTimeoutSecs = 3600
	defaultReceiveBufferBytes  = 1 << 20
)

// Listener configures one UDP source (spec.md §4.8, §6).
type Listener struct {
	// Address is the host:port the listener binds.
	Address string `yaml:"address"`
	// MulticastGroups are additional IPv4 multicast groups the listener's
	// socket joins, on the system's default multicast interface, if any.
	MulticastGroups []string `yaml:"multicast_groups,omitempty"`
	// MaxLength caps the size of a single datagram read. Defaults to 64KiB.
	MaxLength int `yaml:"max_length,omitempty"`
	// Protocols lists which decoders this listener dispatches to: any of
	// "netflow_v5", "netflow_v9", "ipfix", "sflow".
	Protocols []string `yaml:"protocols"`
	// IncludeRawData attaches the base64-encoded datagram to every record
	// this listener emits.
	IncludeRawData bool `yaml:"include_raw_data,omitempty"`
	// MaxTemplates bounds this listener's template store (defaults to 1000).
	MaxTemplates int `yaml:"max_templates,omitempty"`
	// TemplateTimeoutSecs evicts templates older than this many seconds
	// (0 or unset selects the default of 3600; a negative value disables
	// age-based eviction).
	TemplateTimeoutSecs int `yaml:"template_timeout_secs,omitempty"`
	// ReceiveBufferBytes sets SO_RCVBUF on the underlying socket, if
	// nonzero (defaults to 1MiB).
	ReceiveBufferBytes int `yaml:"receive_buffer_bytes,omitempty"`
}

// Config is the top-level configuration document.
type Config struct {
	Listeners []Listener `yaml:"listeners"`
}

// TemplateTimeout returns the listener's template TTL as a
// time.Duration, applying the default when unset.
func (l Listener) TemplateTimeout() time.Duration {
	secs := l.TemplateTimeoutSecs
	if secs == 0 {
		secs = defaultTemplateTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

// WithDefaults fills zero-valued optional fields with their documented
// defaults (spec.md §6).
func (l Listener) WithDefaults() Listener {
	if l.MaxLength == 0 {
		l.MaxLength = defaultMaxLength
	}
	if l.MaxTemplates == 0 {
		l.MaxTemplates = defaultMaxTemplates
	}
	if l.ReceiveBufferBytes == 0 {
		l.ReceiveBufferBytes = defaultReceiveBufferBytes
	}
	return l
}

// Read decodes a Config document from r, rejecting unknown fields so a
// typo in a config file surfaces as a load-time error rather than a
// silently-ignored option.
func Read(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	for i, l := range cfg.Listeners {
		cfg.Listeners[i] = l.WithDefaults()
	}

	return &cfg, nil
}
