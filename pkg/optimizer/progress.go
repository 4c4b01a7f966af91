package optimizer

// ProgressEvent is pushed to the observer after each radius
// completes. PercentComplete is monotonically increasing over a run;
// the sweep itself spans [0, 95] and the final selection step brings
// it to 100.
type ProgressEvent struct {
	Radius               int
	ParticleCount        int
	MeanContacts         float64
	LargestParticleRatio float64
	PercentComplete      float64
}

// Observer receives one-way progress notifications from the
// optimizer. OnRadiusComplete is called synchronously from the
// optimization loop and must return quickly; callers that need to do
// slow work (UI updates, persistence) should hand the event off
// through ChannelObserver or their own queue.
type Observer interface {
	OnRadiusComplete(ProgressEvent)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ProgressEvent)

func (f ObserverFunc) OnRadiusComplete(ev ProgressEvent) {
	f(ev)
}

// ChannelObserver forwards progress events into a bounded channel
// without ever blocking the optimizer: when the buffer is full the
// oldest pending event is dropped in favor of the newest one. A slow
// consumer therefore sees fresh progress, never a stalled sweep.
type ChannelObserver struct {
	events chan ProgressEvent
}

// NewChannelObserver creates a channel-backed observer with the given
// buffer size (minimum 1).
func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelObserver{events: make(chan ProgressEvent, buffer)}
}

// Events returns the receive side of the progress channel.
func (c *ChannelObserver) Events() <-chan ProgressEvent {
	return c.events
}

// OnRadiusComplete implements Observer with drop-oldest semantics.
func (c *ChannelObserver) OnRadiusComplete(ev ProgressEvent) {
	for {
		select {
		case c.events <- ev:
			return
		default:
			select {
			case <-c.events:
			default:
			}
		}
	}
}

// Close closes the event channel. Call it only after the optimization
// run has returned.
func (c *ChannelObserver) Close() {
	close(c.events)
}
