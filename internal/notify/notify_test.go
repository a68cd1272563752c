package notify

import (
	"testing"

	"github.com/inamate/sketchplane/internal/command"
)

func TestDispatcher_OrderAndUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var got []string

	unsubA := d.Subscribe(func(chg command.Change) { got = append(got, "a:"+chg.Label) })
	d.Subscribe(func(chg command.Change) { got = append(got, "b:"+chg.Label) })

	d.Publish(command.Change{Label: "one"})
	unsubA()
	unsubA()
	d.Publish(command.Change{Label: "two"})

	want := []string{"a:one", "b:one", "b:two"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
	if d.Len() != 1 {
		t.Errorf("Len = %d, want 1", d.Len())
	}
}

func TestDispatcher_UnsubscribeDuringPublish(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	var unsub func()
	unsub = d.Subscribe(func(command.Change) {
		calls++
		unsub()
	})

	d.Publish(command.Change{})
	d.Publish(command.Change{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
