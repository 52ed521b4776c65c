package entropy

import (
	"runtime"
	"strings"
	"sync"
)

// Reader adapts a Generator to io.Reader, e.g. for tls.Config.Rand in Go
// harnesses. Reads are serialized.
type Reader struct {
	mu  sync.Mutex
	gen *Generator
}

// NewReader returns a reader drawing from gen
func NewReader(gen *Generator) *Reader {
	return &Reader{gen: gen}
}

// Read fills p from the generator and never fails.
//
// Go's crypto packages call randutil.MaybeReadByte, which consumes one byte
// only half of the time. Such reads get a zero byte without advancing the
// generator, so the sequence seen by everything else stays reproducible.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 1 && calledFromMaybeReadByte() {
		p[0] = 0
		return 1, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen.Bytes(p)
	return len(p), nil
}

func calledFromMaybeReadByte() bool {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if strings.HasSuffix(frame.Function, ".MaybeReadByte") {
			return true
		}
		if !more {
			return false
		}
	}
}
