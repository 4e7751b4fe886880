// Package emitter implements a synchronous, priority ordered event bus.
//
// Listeners are registered for an event name and fired from the highest
// priority to the lowest one, listeners with the same priority keep their
// registration order. Event names may be namespaced with ':' - firing
// "element:p" runs listeners registered for "element:p" and for "element"
// merged into a single ordered list. Any listener may stop the event, in
// which case the remaining listeners for this particular firing are skipped.
//
// Bus is not safe for concurrent use.
package emitter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Priority determines listener execution order, higher values run first.
type Priority int

const (
	PriorityLowest  Priority = -100000
	PriorityLow     Priority = -1000
	PriorityNormal  Priority = 0
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 100000
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityLowest:
		return "lowest"
	case p <= PriorityLow:
		return "low"
	case p < PriorityHigh:
		return "normal"
	case p < PriorityHighest:
		return "high"
	default:
		return "highest"
	}
}

// ParsePriority accepts priority name or integer value.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lowest":
		return PriorityLowest, nil
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "highest":
		return PriorityHighest, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return PriorityNormal, fmt.Errorf("bad priority %q", s)
	}
	return Priority(n), nil
}

// Event is passed to every listener of a single firing.
type Event struct {
	Name    string
	stopped bool
}

// Stop prevents remaining listeners from being called for this firing.
func (e *Event) Stop() {
	e.stopped = true
}

// Stopped reports whether one of the listeners stopped the event.
func (e *Event) Stopped() bool {
	return e.stopped
}

type listener[H any] struct {
	handler  H
	priority Priority
	seq      uint64
	removed  bool
}

// Option configures a single registration.
type Option func(*options)

type options struct {
	priority Priority
}

// WithPriority sets listener priority, default is PriorityNormal.
func WithPriority(p Priority) Option {
	return func(o *options) {
		o.priority = p
	}
}

// Bus keeps listeners of type H keyed by event name.
type Bus[H any] struct {
	listeners map[string][]*listener[H]
	seq       uint64
}

// New creates empty bus.
func New[H any]() *Bus[H] {
	return &Bus[H]{listeners: make(map[string][]*listener[H])}
}

// On registers handler for the event name and returns function which removes
// this registration.
func (b *Bus[H]) On(name string, handler H, opts ...Option) (off func()) {
	o := options{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&o)
	}

	b.seq++
	l := &listener[H]{handler: handler, priority: o.priority, seq: b.seq}
	b.listeners[name] = append(b.listeners[name], l)

	return func() {
		if l.removed {
			return
		}
		l.removed = true
		b.listeners[name] = slices.DeleteFunc(b.listeners[name], func(x *listener[H]) bool { return x == l })
		if len(b.listeners[name]) == 0 {
			delete(b.listeners, name)
		}
	}
}

// Has reports whether any listener would be called when firing name.
func (b *Bus[H]) Has(name string) bool {
	for _, ns := range namespaces(name) {
		if len(b.listeners[ns]) > 0 {
			return true
		}
	}
	return false
}

// Handlers returns listeners which would be called for name in calling order.
func (b *Bus[H]) Handlers(name string) []H {
	ordered := b.collect(name)
	out := make([]H, 0, len(ordered))
	for _, l := range ordered {
		out = append(out, l.handler)
	}
	return out
}

// Fire calls invoke for each listener of name in priority order until the
// event is stopped. Listeners registered or removed while firing do not
// affect the current firing.
func (b *Bus[H]) Fire(name string, invoke func(evt *Event, handler H)) *Event {
	evt := &Event{Name: name}
	for _, l := range b.collect(name) {
		if l.removed {
			continue
		}
		invoke(evt, l.handler)
		if evt.stopped {
			break
		}
	}
	return evt
}

func (b *Bus[H]) collect(name string) []*listener[H] {
	var ordered []*listener[H]
	for _, ns := range namespaces(name) {
		ordered = append(ordered, b.listeners[ns]...)
	}
	slices.SortStableFunc(ordered, func(a, b *listener[H]) int {
		if a.priority != b.priority {
			if a.priority > b.priority {
				return -1
			}
			return 1
		}
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})
	return ordered
}

// namespaces returns "a", "a:b", "a:b:c" for "a:b:c".
func namespaces(name string) []string {
	parts := strings.Split(name, ":")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], ":"))
	}
	return out
}
