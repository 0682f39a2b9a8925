package combat

import (
	"testing"
	"time"
)

func TestHealthDamageSequence(t *testing.T) {
	h := NewHealth(MaxHealth)
	want := []int{80, 60, 40, 20, 0}
	deaths := 0
	prev := h.Value()
	for i, w := range want {
		got, died := h.Damage(HitDamage)
		if got != w {
			t.Fatalf("hit %d: health = %d, want %d", i+1, got, w)
		}
		if got > prev {
			t.Fatalf("hit %d: health increased from %d to %d", i+1, prev, got)
		}
		prev = got
		if died {
			deaths++
			if i != len(want)-1 {
				t.Fatalf("death reported early at hit %d", i+1)
			}
		}
	}
	if deaths != 1 {
		t.Fatalf("deaths = %d, want 1", deaths)
	}
	if got, died := h.Damage(HitDamage); got != 0 || died {
		t.Fatalf("damage after death = (%d, %v), want (0, false)", got, died)
	}
}

func TestHealthClampsOvershoot(t *testing.T) {
	h := NewHealth(30)
	got, died := h.Damage(HitDamage)
	if got != 10 || died {
		t.Fatalf("first hit = (%d, %v)", got, died)
	}
	got, died = h.Damage(HitDamage)
	if got != 0 || !died {
		t.Fatalf("second hit = (%d, %v), want (0, true)", got, died)
	}
	if h.Value() < 0 {
		t.Fatalf("health went negative: %d", h.Value())
	}
}

func TestHealthSetClamps(t *testing.T) {
	h := NewHealth(0)
	if h.Max() != MaxHealth {
		t.Fatalf("default max = %d", h.Max())
	}
	h.Set(-5)
	if h.Value() != 0 || !h.Dead() {
		t.Fatalf("Set(-5) -> %d", h.Value())
	}
	h.Set(250)
	if h.Value() != MaxHealth {
		t.Fatalf("Set(250) -> %d", h.Value())
	}
}

func TestCooldownWindow(t *testing.T) {
	base := time.Unix(1000, 0)
	c := NewCooldown(HitCooldown)
	if c.Active(base) {
		t.Fatal("fresh cooldown should be inactive")
	}
	if !c.Arm(base) {
		t.Fatal("first Arm should succeed")
	}
	if c.Arm(base.Add(500 * time.Millisecond)) {
		t.Fatal("Arm inside window should be refused")
	}
	if !c.Active(base.Add(1199 * time.Millisecond)) {
		t.Fatal("cooldown should still be active at 1199ms")
	}
	if got := c.Remaining(base.Add(200 * time.Millisecond)); got != time.Second {
		t.Fatalf("remaining = %v, want 1s", got)
	}
	if c.Active(base.Add(HitCooldown)) {
		t.Fatal("cooldown should expire at exactly 1200ms")
	}
}
