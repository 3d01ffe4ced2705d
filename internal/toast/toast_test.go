package toast

import (
	"testing"
	"time"
)

func TestAddAndActive(t *testing.T) {
	q := NewQueue(time.Minute)

	id1 := q.Add("saved", Success)
	id2 := q.Add("failed", Error)

	if id1 == id2 {
		t.Errorf("ids collide: %q", id1)
	}
	active := q.Active()
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	if active[0].Message != "saved" || active[1].Message != "failed" {
		t.Errorf("order = %q, %q", active[0].Message, active[1].Message)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	q := NewQueue(time.Minute)
	id := q.Add("once", Info)

	q.Remove(id)
	q.Remove(id)
	q.Remove("never-existed")

	if got := len(q.Active()); got != 0 {
		t.Errorf("active = %d, want 0", got)
	}
}

func TestToastExpires(t *testing.T) {
	q := NewQueue(10 * time.Millisecond)
	q.Add("fleeting", Info)

	deadline := time.Now().Add(2 * time.Second)
	for len(q.Active()) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("toast never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	q := NewQueue(time.Minute)
	var lens []int
	q.OnChange(func(snapshot []Toast) {
		lens = append(lens, len(snapshot))
	})

	id := q.Add("a", Info)
	q.Add("b", Info)
	q.Remove(id)

	if len(lens) != 3 || lens[0] != 1 || lens[1] != 2 || lens[2] != 1 {
		t.Errorf("snapshot lengths = %v, want [1 2 1]", lens)
	}
}
