package fiber

import "time"

// Generation describes one render pass of a Root.
type Generation struct {
	Root    string
	ID      uint64
	Started time.Time
	Units   int // Units of work performed so far
	Slices  int // WorkLoop calls that performed work
}

// CommitReport summarizes a committed generation.
type CommitReport struct {
	Generation
	Placements int
	Updates    int
	Deletions  int

	BuildDuration  time.Duration
	CommitDuration time.Duration
}

// Observer receives generation lifecycle events. Calls are made on the
// goroutine driving the Root and must not block.
type Observer interface {
	GenerationStarted(g Generation)
	SliceYielded(g Generation)
	GenerationCommitted(r CommitReport)
	GenerationAborted(g Generation, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) GenerationStarted(Generation)        {}
func (NopObserver) SliceYielded(Generation)             {}
func (NopObserver) GenerationCommitted(CommitReport)    {}
func (NopObserver) GenerationAborted(Generation, error) {}

// Observers fans events out to each observer in order.
type Observers []Observer

func (o Observers) GenerationStarted(g Generation) {
	for _, ob := range o {
		ob.GenerationStarted(g)
	}
}

func (o Observers) SliceYielded(g Generation) {
	for _, ob := range o {
		ob.SliceYielded(g)
	}
}

func (o Observers) GenerationCommitted(r CommitReport) {
	for _, ob := range o {
		ob.GenerationCommitted(r)
	}
}

func (o Observers) GenerationAborted(g Generation, err error) {
	for _, ob := range o {
		ob.GenerationAborted(g, err)
	}
}
