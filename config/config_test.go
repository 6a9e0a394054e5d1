package config

import (
	"strings"
	"testing"
	"time"
)

func TestReadAppliesDefaults(t *testing.T) {
	doc := `
listeners:
  - address: 0.0.0.0:2055
    protocols: [netflow_v5, netflow_v9]
`
	cfg, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Listeners) != 1 {
		t.Fatalf("expected 1 listener, got %d", len(cfg.Listeners))
	}
	l := cfg.Listeners[0]
	if l.MaxLength != defaultMaxLength {
		t.Fatalf("expected default max_length, got %d", l.MaxLength)
	}
	if l.MaxTemplates != defaultMaxTemplates {
		t.Fatalf("expected default max_templates, got %d", l.MaxTemplates)
	}
	if l.TemplateTimeout() != time.Duration(defaultTemplateTimeoutSecs)*time.Second {
		t.Fatalf("unexpected template timeout %v", l.TemplateTimeout())
	}
}

func TestReadRejectsUnknownFields(t *testing.T) {
	doc := `
listeners:
  - address: 0.0.0.0:2055
    protocols: [netflow_v5]
    bogus_field: true
`
	if _, err := Read(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected an error for an unknown field")
	}
}

func TestExplicitTemplateTimeoutOverridesDefault(t *testing.T) {
	l := Listener{TemplateTimeoutSecs: 60}
	if l.TemplateTimeout() != 60*time.Second {
		t.Fatalf("unexpected template timeout %v", l.TemplateTimeout())
	}
}
