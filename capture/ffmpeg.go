package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// The microphone is a singleton resource: one acquisition at a time
// across all ffmpeg devices in the process.
var micInUse atomic.Bool

// FFmpegDevice captures the default system microphone by shelling out
// to ffmpeg: opus-in-webm chunks on stdout, raw mono PCM on an extra
// pipe feeding the loudness analyzer.
type FFmpegDevice struct {
	Format string // input demuxer, e.g. pulse or avfoundation
	Input  string // input device selector
}

func NewFFmpegDevice() *FFmpegDevice {
	switch runtime.GOOS {
	case "darwin":
		return &FFmpegDevice{Format: "avfoundation", Input: ":default"}
	default:
		return &FFmpegDevice{Format: "pulse", Input: "default"}
	}
}

func (d *FFmpegDevice) Acquire(ctx context.Context) (Stream, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	if !micInUse.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	pcmR, pcmW, err := os.Pipe()
	if err != nil {
		micInUse.Store(false)
		return nil, fmt.Errorf("failed to create pcm pipe: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-hide_banner",
		"-f", d.Format,
		"-i", d.Input,
		"-map", "0:a", "-ac", "1", "-c:a", "libopus", "-f", "webm", "pipe:1",
		"-map", "0:a", "-ac", "1", "-ar", "16000", "-f", "s16le", "pipe:3",
	)
	cmd.ExtraFiles = []*os.File{pcmW}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		pcmR.Close()
		pcmW.Close()
		micInUse.Store(false)
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		pcmR.Close()
		pcmW.Close()
		micInUse.Store(false)
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	// The child holds its own copy of the write end now.
	pcmW.Close()

	s := &ffmpegStream{
		cmd:      cmd,
		chunks:   make(chan []byte, 64),
		analyzer: &pcmAnalyzer{},
		pcmR:     pcmR,
		waitDone: make(chan error, 1),
	}

	go func() {
		s.waitDone <- cmd.Wait()
	}()

	// Denied device access makes ffmpeg die right away; map that to a
	// permission error instead of a dead silent stream.
	select {
	case <-s.waitDone:
		pcmR.Close()
		micInUse.Store(false)
		msg := strings.TrimSpace(stderr.String())
		if looksLikeDenial(msg) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
		}
		return nil, fmt.Errorf("ffmpeg exited on startup: %s", msg)
	case <-time.After(200 * time.Millisecond):
	}

	if ctx != nil && ctx.Err() != nil {
		s.Close()
		return nil, ctx.Err()
	}

	go s.readChunks(stdout)
	go s.feedAnalyzer()

	return s, nil
}

func looksLikeDenial(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "operation not permitted") ||
		strings.Contains(lower, "access denied")
}

type ffmpegStream struct {
	cmd      *exec.Cmd
	chunks   chan []byte
	analyzer *pcmAnalyzer
	pcmR     *os.File
	waitDone chan error

	closeOnce sync.Once
	closeErr  error
}

func (s *ffmpegStream) Chunks() <-chan []byte {
	return s.chunks
}

func (s *ffmpegStream) Analyzer() Analyzer {
	return s.analyzer
}

// Close interrupts ffmpeg so it flushes the webm container, then waits
// it out. The chunk channel closes once stdout reaches EOF.
func (s *ffmpegStream) Close() error {
	s.closeOnce.Do(func() {
		defer micInUse.Store(false)

		if s.cmd.Process != nil {
			s.cmd.Process.Signal(os.Interrupt)
		}

		select {
		case err := <-s.waitDone:
			s.closeErr = err
		case <-time.After(3 * time.Second):
			if s.cmd.Process != nil {
				s.cmd.Process.Kill()
			}
			s.closeErr = <-s.waitDone
		}

		s.pcmR.Close()
	})

	return s.closeErr
}

func (s *ffmpegStream) readChunks(stdout io.Reader) {
	defer close(s.chunks)

	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.chunks <- chunk
		}
		if err != nil {
			return
		}
	}
}

func (s *ffmpegStream) feedAnalyzer() {
	buf := make([]byte, 2*analysisWindow)
	samples := make([]int16, analysisWindow)

	for {
		n, err := io.ReadFull(s.pcmR, buf)
		if n >= 2 {
			count := n / 2
			for i := 0; i < count; i++ {
				samples[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
			}
			s.analyzer.push(samples[:count])
		}
		if err != nil {
			return
		}
	}
}
