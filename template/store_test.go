package template

import (
	"testing"
	"time"
)

func TestTemplateIsolationByPeer(t *testing.T) {
	s := NewMemoryStore()
	k1 := Key{Peer: "10.0.0.1:2055", Domain: 1, TemplateID: 256}
	k2 := Key{Peer: "10.0.0.2:2055", Domain: 1, TemplateID: 256}

	s.Insert(k1, &Template{TemplateID: 256, Fields: []Field{{IE: 8, Length: 4}}})
	s.Insert(k2, &Template{TemplateID: 256, Fields: []Field{{IE: 12, Length: 4}}})

	t1, ok := s.Lookup(k1)
	if !ok || t1.Fields[0].IE != 8 {
		t.Fatalf("expected isolated template for k1, got %v ok=%v", t1, ok)
	}
	t2, ok := s.Lookup(k2)
	if !ok || t2.Fields[0].IE != 12 {
		t.Fatalf("expected isolated template for k2, got %v ok=%v", t2, ok)
	}
}

func TestLookupMiss(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.Lookup(Key{Peer: "x", Domain: 0, TemplateID: 1})
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestReinsertReplaces(t *testing.T) {
	s := NewMemoryStore()
	k := Key{Peer: "p", Domain: 0, TemplateID: 1}
	s.Insert(k, &Template{TemplateID: 1, Fields: []Field{{IE: 1, Length: 4}}})
	s.Insert(k, &Template{TemplateID: 1, Fields: []Field{{IE: 2, Length: 8}}})

	got, ok := s.Lookup(k)
	if !ok || got.Fields[0].IE != 2 || len(s.entries) != 1 {
		t.Fatalf("expected replacement, got %v", got)
	}
}

func TestSweepBoundsCapacity(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 15; i++ {
		s.Insert(Key{Peer: "p", Domain: 0, TemplateID: uint16(i)}, &Template{TemplateID: uint16(i)})
	}
	evictedCapacity, evictedTTL := s.Sweep(10, 0)
	if evictedCapacity != 5 || evictedTTL != 0 {
		t.Fatalf("expected 5 capacity evictions and 0 ttl evictions, got capacity=%d ttl=%d", evictedCapacity, evictedTTL)
	}
	if s.Len() != 10 {
		t.Fatalf("expected 10 entries after sweep, got %d", s.Len())
	}
	// the oldest (lowest ids) should have been evicted
	if _, ok := s.Lookup(Key{Peer: "p", Domain: 0, TemplateID: 0}); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, ok := s.Lookup(Key{Peer: "p", Domain: 0, TemplateID: 14}); !ok {
		t.Fatalf("expected newest entry to survive")
	}
}

func TestSweepTTL(t *testing.T) {
	s := NewMemoryStore()
	k := Key{Peer: "p", Domain: 0, TemplateID: 1}
	s.Insert(k, &Template{TemplateID: 1})
	s.entries[k].ts = time.Now().Add(-time.Hour)
	s.entries[k].elem.Value = orderRecord{key: k, ts: s.entries[k].ts}

	evictedCapacity, evictedTTL := s.Sweep(1000, time.Minute)
	if evictedCapacity != 0 || evictedTTL != 1 {
		t.Fatalf("expected 0 capacity evictions and 1 ttl eviction, got capacity=%d ttl=%d", evictedCapacity, evictedTTL)
	}
	if _, ok := s.Lookup(k); ok {
		t.Fatalf("expected expired entry to be evicted")
	}
}

func TestSweepStaleOrderEntriesDontCountAgainstCapacity(t *testing.T) {
	s := NewMemoryStore()
	k := Key{Peer: "p", Domain: 0, TemplateID: 1}
	for i := 0; i < 5; i++ {
		s.Insert(k, &Template{TemplateID: 1})
	}
	if s.order.Len() != 5 {
		t.Fatalf("expected 5 queued order records, got %d", s.order.Len())
	}
	s.Sweep(10, 0)
	if s.Len() != 1 {
		t.Fatalf("expected single live entry, got %d", s.Len())
	}
}
