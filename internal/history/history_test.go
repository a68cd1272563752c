package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/notify"
)

// counter is a command that adds n to a shared total.
type counter struct {
	total *int
	n     int
	fail  bool
}

func (c *counter) Apply() (command.Change, error) {
	if c.fail {
		return command.Change{}, errors.New("boom")
	}
	*c.total += c.n
	return command.Change{Label: c.Label()}, nil
}

func (c *counter) Revert() (command.Change, error) {
	*c.total -= c.n
	return command.Change{Label: c.Label()}, nil
}

func (c *counter) Label() string { return fmt.Sprintf("add %d", c.n) }

func TestStack_PushUndoRedo(t *testing.T) {
	var total int
	var labels []string
	s := New(notify.SinkFunc(func(chg command.Change) { labels = append(labels, chg.Label) }), 0)

	for _, n := range []int{1, 2, 3} {
		if err := s.Push(&counter{total: &total, n: n}); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if total != 6 || s.Index() != 3 {
		t.Fatalf("total = %d, index = %d", total, s.Index())
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if total != 1 || s.UndoLabel() != "add 1" || s.RedoLabel() != "add 2" {
		t.Fatalf("total = %d, undo %q, redo %q", total, s.UndoLabel(), s.RedoLabel())
	}
	if err := s.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if total != 3 {
		t.Errorf("total after redo = %d, want 3", total)
	}

	want := []string{"add 1", "add 2", "add 3", "add 3", "add 2", "add 2"}
	if fmt.Sprint(labels) != fmt.Sprint(want) {
		t.Errorf("published = %v, want %v", labels, want)
	}
}

func TestStack_PushTruncatesRedoTail(t *testing.T) {
	var total int
	s := New(nil, 0)
	for _, n := range []int{1, 2, 3} {
		if err := s.Push(&counter{total: &total, n: n}); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	_ = s.Undo()
	_ = s.Undo()

	if err := s.Push(&counter{total: &total, n: 10}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if s.Len() != 2 || s.CanRedo() {
		t.Fatalf("len = %d, can redo = %v", s.Len(), s.CanRedo())
	}
	if total != 11 {
		t.Errorf("total = %d, want 11", total)
	}
	entries := s.Entries()
	if entries[0].Label != "add 1" || entries[1].Label != "add 10" || !entries[1].Applied {
		t.Errorf("entries = %+v", entries)
	}
}

func TestStack_Empty(t *testing.T) {
	s := New(nil, 0)
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("undo err = %v, want ErrNothingToUndo", err)
	}
	if err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("redo err = %v, want ErrNothingToRedo", err)
	}
	if s.UndoLabel() != "" || s.RedoLabel() != "" {
		t.Error("labels on an empty stack")
	}
	if err := s.Push(nil); !errors.Is(err, command.ErrInvalidArgument) {
		t.Errorf("nil push err = %v, want ErrInvalidArgument", err)
	}
}

func TestStack_FailedApplyIsDropped(t *testing.T) {
	var total int
	published := 0
	s := New(notify.SinkFunc(func(command.Change) { published++ }), 0)

	if err := s.Push(&counter{total: &total, n: 1, fail: true}); err == nil {
		t.Fatal("Push of a failing command succeeded")
	}
	if s.Len() != 0 || published != 0 {
		t.Errorf("len = %d, published = %d", s.Len(), published)
	}
}

func TestStack_Limit(t *testing.T) {
	var total int
	s := New(nil, 2)
	for _, n := range []int{1, 2, 3} {
		if err := s.Push(&counter{total: &total, n: n}); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if s.Len() != 2 || s.Index() != 2 {
		t.Fatalf("len = %d, index = %d, want 2, 2", s.Len(), s.Index())
	}
	_ = s.Undo()
	_ = s.Undo()
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("third undo err = %v, want ErrNothingToUndo", err)
	}
	// The oldest command was dropped, not reverted.
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestStack_Clear(t *testing.T) {
	var total int
	s := New(nil, 0)
	_ = s.Push(&counter{total: &total, n: 4})
	s.Clear()
	if s.CanUndo() || s.Len() != 0 || total != 4 {
		t.Errorf("after clear: can undo %v, len %d, total %d", s.CanUndo(), s.Len(), total)
	}
}
