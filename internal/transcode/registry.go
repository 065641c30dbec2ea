package transcode

import (
	"context"
	"sync"
)

type registration struct {
	cancel context.CancelFunc
	seq    uint64
}

// Registry tracks the cancel functions of in-flight runs by video id.
type Registry struct {
	mu   sync.Mutex
	seq  uint64
	runs map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]registration)}
}

// Register records cancel for videoID and returns a func that forgets it.
// A later registration for the same id replaces this one; the returned
// func then leaves the newer entry alone.
func (r *Registry) Register(videoID string, cancel context.CancelFunc) func() {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.runs[videoID] = registration{cancel: cancel, seq: seq}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		if cur, ok := r.runs[videoID]; ok && cur.seq == seq {
			delete(r.runs, videoID)
		}
		r.mu.Unlock()
	}
}

// Cancel stops the run for videoID. It reports whether one was found.
func (r *Registry) Cancel(videoID string) bool {
	r.mu.Lock()
	reg, ok := r.runs[videoID]
	delete(r.runs, videoID)
	r.mu.Unlock()
	if ok {
		reg.cancel()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
