package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/echonotes/backend/services/notes/entity"
)

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// Recorder owns the Idle -> Recording -> Idle state machine. All
// resource handles (stream, duration ticker, signal monitor) are named
// fields released through one teardown path, on explicit Stop and on
// Close alike.
type Recorder struct {
	device        Device
	tick          time.Duration
	levelInterval time.Duration
	onLevel       func(float64)

	mu          sync.Mutex
	state       State
	stream      Stream
	stopTick    chan struct{}
	monitor     *SignalMonitor
	collectDone chan struct{}
	chunks      [][]byte

	seconds atomic.Int64
}

type Option func(*Recorder)

// WithTickInterval overrides the one-second duration counter cadence.
// Tests use this; the reported duration still counts ticks.
func WithTickInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.tick = d
		}
	}
}

// WithLevelFunc subscribes to normalized loudness samples while
// recording.
func WithLevelFunc(fn func(float64)) Option {
	return func(r *Recorder) {
		r.onLevel = fn
	}
}

// WithLevelInterval overrides the signal monitor cadence.
func WithLevelInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.levelInterval = d
		}
	}
}

func NewRecorder(device Device, opts ...Option) *Recorder {
	r := &Recorder{
		device:        device,
		tick:          time.Second,
		levelInterval: DefaultLevelInterval,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed is the number of full duration ticks spent recording so far.
func (r *Recorder) Elapsed() int {
	return int(r.seconds.Load())
}

// Start acquires the microphone and begins accumulating chunks. While
// already Recording it returns ErrBusy and leaves the active recording
// untouched. A device denial surfaces unchanged and the recorder stays
// Idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return ErrBusy
	}

	stream, err := r.device.Acquire(ctx)
	if err != nil {
		return err
	}

	r.stream = stream
	r.chunks = nil
	r.seconds.Store(0)
	r.stopTick = make(chan struct{})
	r.collectDone = make(chan struct{})
	r.monitor = NewSignalMonitor(r.levelInterval)
	r.state = StateRecording

	go r.collect(stream.Chunks(), r.collectDone)
	go r.countTicks(r.stopTick)
	r.monitor.Start(stream.Analyzer(), r.onLevel)

	return nil
}

// Stop halts the encoder, drains the remaining chunks, releases every
// handle, and emits the finished capture.
func (r *Recorder) Stop() (*entity.AudioCapture, error) {
	stream, stopTick, monitor, collectDone, ok := r.detach()
	if !ok {
		return nil, ErrNotRecording
	}

	releaseHandles(stream, stopTick, monitor)
	<-collectDone

	r.mu.Lock()
	defer r.mu.Unlock()

	var size int
	for _, chunk := range r.chunks {
		size += len(chunk)
	}
	data := make([]byte, 0, size)
	for _, chunk := range r.chunks {
		data = append(data, chunk...)
	}
	r.chunks = nil

	return &entity.AudioCapture{
		Data:            data,
		MediaType:       entity.MediaTypeWebM,
		DurationSeconds: int(r.seconds.Load()),
	}, nil
}

// Close releases the microphone and analysis resources regardless of
// state, discarding any capture in progress. Safe after Stop.
func (r *Recorder) Close() error {
	stream, stopTick, monitor, collectDone, ok := r.detach()
	if !ok {
		return nil
	}

	releaseHandles(stream, stopTick, monitor)
	<-collectDone

	r.mu.Lock()
	r.chunks = nil
	r.mu.Unlock()

	return nil
}

// detach flips the state machine back to Idle and hands the live
// handles to the caller; exactly one caller wins.
func (r *Recorder) detach() (Stream, chan struct{}, *SignalMonitor, chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return nil, nil, nil, nil, false
	}

	stream, stopTick, monitor, collectDone := r.stream, r.stopTick, r.monitor, r.collectDone
	r.stream, r.stopTick, r.monitor, r.collectDone = nil, nil, nil, nil
	r.state = StateIdle

	return stream, stopTick, monitor, collectDone, true
}

// releaseHandles is the single teardown routine for all non-absent
// handles.
func releaseHandles(stream Stream, stopTick chan struct{}, monitor *SignalMonitor) {
	if monitor != nil {
		monitor.Stop()
	}
	if stopTick != nil {
		close(stopTick)
	}
	if stream != nil {
		stream.Close()
	}
}

func (r *Recorder) collect(chunks <-chan []byte, done chan struct{}) {
	defer close(done)

	for chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		r.mu.Lock()
		r.chunks = append(r.chunks, chunk)
		r.mu.Unlock()
	}
}

func (r *Recorder) countTicks(stop chan struct{}) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.seconds.Add(1)
		}
	}
}
