// Package history sequences edit commands on an undo stack.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/notify"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Entry is one command in a history listing.
type Entry struct {
	Label   string `json:"label"`
	Applied bool   `json:"applied"`
}

// Stack owns pushed commands. The first index commands are applied; the rest
// form the redo tail. All operations are serialized by one lock.
type Stack struct {
	mu       sync.Mutex
	commands []command.Command
	index    int
	limit    int
	sink     notify.Sink
}

// New creates a stack publishing to sink (may be nil). A positive limit caps
// the number of retained commands; the oldest are dropped first.
func New(sink notify.Sink, limit int) *Stack {
	return &Stack{sink: sink, limit: limit}
}

// Push applies cmd once and takes ownership of it. Any redo tail is
// discarded. A command whose Apply fails is dropped and the error returned.
func (s *Stack) Push(cmd command.Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", command.ErrInvalidArgument)
	}

	s.mu.Lock()
	chg, err := cmd.Apply()
	if err != nil {
		s.mu.Unlock()
		slog.Warn("command apply failed", "command", cmd.Label(), "error", err)
		return fmt.Errorf("apply %q: %w", cmd.Label(), err)
	}

	s.commands = append(s.commands[:s.index], cmd)
	s.index++
	if s.limit > 0 && len(s.commands) > s.limit {
		drop := len(s.commands) - s.limit
		s.commands = append(s.commands[:0:0], s.commands[drop:]...)
		s.index -= drop
	}
	s.mu.Unlock()

	s.publish(chg)
	return nil
}

// Undo reverts the most recently applied command.
func (s *Stack) Undo() error {
	s.mu.Lock()
	if s.index == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	cmd := s.commands[s.index-1]
	chg, err := cmd.Revert()
	if err != nil {
		s.mu.Unlock()
		slog.Warn("command revert failed", "command", cmd.Label(), "error", err)
		return fmt.Errorf("undo %q: %w", cmd.Label(), err)
	}
	s.index--
	s.mu.Unlock()

	s.publish(chg)
	return nil
}

// Redo re-applies the next command of the redo tail.
func (s *Stack) Redo() error {
	s.mu.Lock()
	if s.index == len(s.commands) {
		s.mu.Unlock()
		return ErrNothingToRedo
	}
	cmd := s.commands[s.index]
	chg, err := cmd.Apply()
	if err != nil {
		s.mu.Unlock()
		slog.Warn("command redo failed", "command", cmd.Label(), "error", err)
		return fmt.Errorf("redo %q: %w", cmd.Label(), err)
	}
	s.index++
	s.mu.Unlock()

	s.publish(chg)
	return nil
}

func (s *Stack) publish(chg command.Change) {
	if s.sink != nil {
		s.sink.Publish(chg)
	}
}

func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index < len(s.commands)
}

// UndoLabel returns the label of the command Undo would revert, or "".
func (s *Stack) UndoLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == 0 {
		return ""
	}
	return s.commands[s.index-1].Label()
}

// RedoLabel returns the label of the command Redo would apply, or "".
func (s *Stack) RedoLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == len(s.commands) {
		return ""
	}
	return s.commands[s.index].Label()
}

// Len returns the number of retained commands.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commands)
}

// Index returns the number of applied commands.
func (s *Stack) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Entries lists the retained commands, oldest first.
func (s *Stack) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.commands))
	for i, cmd := range s.commands {
		out[i] = Entry{Label: cmd.Label(), Applied: i < s.index}
	}
	return out
}

// Clear drops every command without reverting it.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
	s.index = 0
}
