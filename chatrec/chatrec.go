// Package chatrec supervises the chat-recorder sidecar. The recorder is an
// independent process invoked with the broadcast id; it runs until interrupted
// and flushes its transcript on interrupt, so shutdown is two-phase: SIGINT,
// a bounded grace wait for voluntary exit, then SIGKILL.
package chatrec

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Supervisor launches recorder processes.
type Supervisor struct {
	Bin   string
	Grace time.Duration
}

// Recorder is a handle to one running sidecar process.
type Recorder struct {
	videoID  string
	cmd      *exec.Cmd
	grace    time.Duration
	done     chan struct{}
	waitErr  error
	stopOnce sync.Once
}

// Start launches the sidecar scoped to one broadcast id.
func (s *Supervisor) Start(videoID string) (*Recorder, error) {
	grace := s.Grace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	cmd := exec.Command(s.Bin, videoID)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start chat recorder: %w", err)
	}
	r := &Recorder{videoID: videoID, cmd: cmd, grace: grace, done: make(chan struct{})}
	go func() {
		r.waitErr = cmd.Wait()
		close(r.done)
	}()
	slog.Info("chat recorder started",
		slog.String("bin", s.Bin),
		slog.String("video_id", videoID),
		slog.Int("pid", cmd.Process.Pid))
	return r, nil
}

// Stop requests graceful shutdown: interrupt, wait up to the grace period for
// the recorder to flush and exit, then force-terminate. Idempotent; returns
// within grace + a small epsilon regardless of sidecar behavior. Safe on nil.
func (r *Recorder) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		log := slog.Default().With(slog.String("video_id", r.videoID), slog.String("component", "chatrec"))
		select {
		case <-r.done:
			log.Info("chat recorder already exited", slog.Any("err", r.waitErr))
			return
		default:
		}
		if err := r.cmd.Process.Signal(os.Interrupt); err != nil {
			log.Warn("interrupt chat recorder", slog.Any("err", err))
		}
		select {
		case <-r.done:
			log.Info("chat recorder exited after interrupt")
		case <-time.After(r.grace):
			log.Warn("chat recorder did not exit within grace period; killing", slog.Duration("grace", r.grace))
			if err := r.cmd.Process.Kill(); err != nil {
				log.Warn("kill chat recorder", slog.Any("err", err))
			}
			// Kill is not instantaneous; bound the reap wait too.
			select {
			case <-r.done:
			case <-time.After(time.Second):
				log.Error("chat recorder unreaped after kill")
			}
		}
	})
}

// Done is closed when the sidecar process has exited.
func (r *Recorder) Done() <-chan struct{} { return r.done }
