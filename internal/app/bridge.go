package app

import (
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

const bridgeBuffer = 256

// logLineMsg carries one line of SDK log output.
type logLineMsg string

// dispatchMsg runs a function on the UI goroutine.
type dispatchMsg func()

// Bridge carries messages from SDK goroutines into the Bubble Tea loop.
// Messages queue until Pump starts, so the logger can be wired before the
// program exists.
type Bridge struct {
	msgs    chan tea.Msg
	done    chan struct{}
	dropped atomic.Int64
}

func NewBridge() *Bridge {
	return &Bridge{
		msgs: make(chan tea.Msg, bridgeBuffer),
		done: make(chan struct{}),
	}
}

// Pump forwards queued and future messages to send until Stop.
func (b *Bridge) Pump(send func(tea.Msg)) {
	go func() {
		for {
			select {
			case <-b.done:
				return
			case msg := <-b.msgs:
				send(msg)
			}
		}
	}()
}

// Stop ends Pump. Later sends are discarded.
func (b *Bridge) Stop() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

// TrySend queues msg without blocking. A full queue drops msg and counts
// it; see TakeDropped.
func (b *Bridge) TrySend(msg tea.Msg) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.msgs <- msg:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// TakeDropped returns how many messages were dropped since the last call.
func (b *Bridge) TakeDropped() int64 {
	return b.dropped.Swap(0)
}

// Write turns slog text output into log lines. Callers include the UI
// goroutine itself, so it never blocks.
func (b *Bridge) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			b.TrySend(logLineMsg(line))
		}
	}
	return len(p), nil
}
