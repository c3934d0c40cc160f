package engine

// progressEvent is one completed rule.
type progressEvent struct {
	rule      string
	completed int
}

// progress delivers notifications from a dedicated goroutine. The channel
// holds one slot per rule so notify never blocks rule execution.
type progress struct {
	events chan progressEvent
	done   chan struct{}
}

// startProgress returns nil when no ProgressFunc is configured.
func (e *Engine) startProgress(total int) *progress {
	if e.progress == nil {
		return nil
	}
	p := &progress{
		events: make(chan progressEvent, total),
		done:   make(chan struct{}),
	}
	fn := e.progress
	go func() {
		defer close(p.done)
		for ev := range p.events {
			fn(ev.rule, ev.completed, total)
		}
	}()
	return p
}

func (p *progress) notify(rule string, completed int) {
	if p == nil {
		return
	}
	p.events <- progressEvent{rule: rule, completed: completed}
}

// stop waits until every queued notification has been delivered.
func (p *progress) stop() {
	if p == nil {
		return
	}
	close(p.events)
	<-p.done
}
