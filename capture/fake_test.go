package capture

import (
	"context"
	"sync"
)

// fakeAnalyzer returns a fixed bin snapshot.
type fakeAnalyzer struct {
	bins []byte
}

func (a *fakeAnalyzer) FrequencyBins(dst []byte) int {
	n := copy(dst, a.bins)
	return n
}

// fakeStream hands out chunks pushed by the test and records closure.
type fakeStream struct {
	chunks   chan []byte
	analyzer Analyzer

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		chunks:   make(chan []byte, 16),
		analyzer: &fakeAnalyzer{},
	}
}

func (s *fakeStream) Chunks() <-chan []byte {
	return s.chunks
}

func (s *fakeStream) Analyzer() Analyzer {
	return s.analyzer
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.chunks)
	}
	return nil
}

func (s *fakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) push(chunk []byte) {
	s.chunks <- chunk
}

// fakeDevice hands out a prepared stream or a fixed error.
type fakeDevice struct {
	stream *fakeStream
	err    error

	mu       sync.Mutex
	acquires int
}

func (d *fakeDevice) Acquire(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	d.acquires++
	d.mu.Unlock()

	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

func (d *fakeDevice) Acquires() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acquires
}
