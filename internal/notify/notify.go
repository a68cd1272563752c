// Package notify fans scene changes out to views after each edit.
package notify

import (
	"sync"

	"github.com/inamate/sketchplane/internal/command"
)

// Sink receives the description of every applied or reverted edit.
type Sink interface {
	Publish(chg command.Change)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(chg command.Change)

func (f SinkFunc) Publish(chg command.Change) { f(chg) }

type subscriber struct {
	id int
	fn func(command.Change)
}

// Dispatcher is a Sink that forwards to its subscribers in subscription
// order. Subscribers run synchronously and must not start new edits from
// inside the callback.
type Dispatcher struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers fn and returns a function that removes it.
func (d *Dispatcher) Subscribe(fn func(command.Change)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.subs = append(d.subs, subscriber{id: id, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers chg to every subscriber.
func (d *Dispatcher) Publish(chg command.Change) {
	d.mu.RLock()
	subs := make([]subscriber, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, s := range subs {
		s.fn(chg)
	}
}

// Len returns the number of subscribers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}
