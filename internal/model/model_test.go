package model

import (
	"regexp"
	"testing"
	"time"
)

// crockfordBase32 matches valid ULID strings (26 chars, Crockford Base32 alphabet).
var crockfordBase32 = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if !crockfordBase32.MatchString(id) {
		t.Errorf("NewID() = %q, does not match Crockford Base32 ULID format", id)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StateCreated, StateRunning, true},
		{StateRunning, StateStopping, true},
		{StateStopping, StateStopped, true},
		{StateStopping, StateStoppedDegraded, true},
		{StateCreated, StateStopped, false},
		{StateRunning, StateStopped, false},
		{StateStopped, StateRunning, false},
		{StateStoppedDegraded, StateStopping, false},
		{StateRunning, StateRunning, false},
		{"bogus", StateRunning, false},
	}
	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestWorkItemExpired(t *testing.T) {
	now := time.Now().UTC()

	ephemeral := &WorkItem{ID: 1, Retention: RetentionEphemeral, CreatedAt: now}
	if ephemeral.Expired(now.Add(time.Hour)) {
		t.Error("ephemeral item reported expired")
	}
	if ephemeral.Retained() {
		t.Error("ephemeral item reported retained")
	}

	retained := &WorkItem{
		ID:        2,
		Retention: RetentionRetained,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Second),
	}
	if !retained.Retained() {
		t.Error("retained item not reported retained")
	}
	if retained.Expired(now) {
		t.Error("retained item expired before its lifetime elapsed")
	}
	if !retained.Expired(now.Add(2 * time.Second)) {
		t.Error("retained item not expired after its lifetime elapsed")
	}
}

func TestNewCatalog(t *testing.T) {
	c := NewCatalog(16, 64)
	if c.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", c.Len())
	}

	seen := make(map[string]bool)
	for i := 0; i < c.Len(); i++ {
		e := c.Entry(i)
		if !crockfordBase32.MatchString(e.ID) {
			t.Errorf("entry %d ID = %q, not a ULID", i, e.ID)
		}
		if seen[e.ID] {
			t.Errorf("duplicate catalog entry ID %s", e.ID)
		}
		seen[e.ID] = true
		if len(e.Payload) != 64 {
			t.Errorf("entry %d payload size = %d, want 64", i, len(e.Payload))
		}
	}
}

func TestNewCatalogClampsSize(t *testing.T) {
	c := NewCatalog(0, 8)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
