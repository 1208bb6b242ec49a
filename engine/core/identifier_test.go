package core

import "testing"

func TestIdentifierPoolReusesReleasedSlots(t *testing.T) {
	p := NewIdentifierPool(1)
	a := p.Acquire("a")
	b := p.Acquire("b")
	if a != 1 || b != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a, b)
	}
	if p.Owner(b) != "b" || p.InUse() != 2 {
		t.Errorf("owner = %v, in use = %d", p.Owner(b), p.InUse())
	}

	if err := p.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if p.Owner(a) != nil {
		t.Errorf("released id still owned")
	}
	if c := p.Acquire("c"); c != a {
		t.Errorf("Acquire after release = %d, want %d", c, a)
	}
}

func TestIdentifierPoolReleaseErrors(t *testing.T) {
	p := NewIdentifierPool(1)
	tests := []struct {
		name string
		id   uint32
	}{
		{name: "below base", id: 0},
		{name: "never acquired", id: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Release(tt.id); err == nil {
				t.Errorf("Release(%d) succeeded", tt.id)
			}
		})
	}

	id := p.Acquire(struct{}{})
	if err := p.Release(id); err != nil {
		t.Fatal(err)
	}
	if err := p.Release(id); err == nil {
		t.Errorf("double release succeeded")
	}
}
