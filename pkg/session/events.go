package session

import (
	"sync"
	"time"

	"github.com/matzehuels/structview/pkg/engine"
	"github.com/matzehuels/structview/pkg/model"
)

// DefaultEventLogSize is the number of events a session retains.
const DefaultEventLogSize = 512

// Event types.
const (
	EventFreed    = "freed"
	EventLeak     = "leak"
	EventLeakArea = "leak_area"
)

// Event is one recorded lifecycle event.
type Event struct {
	Seq      uint64           `json:"seq"`
	Type     string           `json:"type"`
	Element  string           `json:"element,omitempty"`
	SourceID string           `json:"source_id,omitempty"`
	Group    string           `json:"group,omitempty"`
	LeakArea *engine.LeakArea `json:"leak_area,omitempty"`
	Time     time.Time        `json:"time"`
}

// EventLog is a bounded, sequence-numbered event buffer that implements
// engine.Observer. Once full, the oldest events are dropped.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	size   int
	next   uint64
}

// NewEventLog returns a log retaining the last size events.
func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventLogSize
	}
	return &EventLog{size: size, next: 1}
}

func (l *EventLog) OnFreed(e *model.Element) {
	l.add(Event{Type: EventFreed, Element: e.ID, SourceID: e.SourceID, Group: e.Group})
}

func (l *EventLog) OnLeak(e *model.Element) {
	l.add(Event{Type: EventLeak, Element: e.ID, SourceID: e.SourceID, Group: e.Group})
}

func (l *EventLog) OnLeakAreaUpdate(area engine.LeakArea) {
	l.add(Event{Type: EventLeakArea, LeakArea: &area})
}

func (l *EventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.Seq = l.next
	ev.Time = time.Now()
	l.next++
	l.events = append(l.events, ev)
	if over := len(l.events) - l.size; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
}

// Since returns the retained events with Seq greater than seq, oldest
// first.
func (l *EventLog) Since(seq uint64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []Event{}
	for _, ev := range l.events {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out
}

var _ engine.Observer = (*EventLog)(nil)
