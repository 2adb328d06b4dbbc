package process

import (
	"os"

	"github.com/kbukum/procspawn/errors"
)

var streamNames = [3]string{"stdin", "stdout", "stderr"}

// Replaced in tests to inject failures.
var (
	pipeFunc     = os.Pipe
	openNullFunc = func() (*os.File, error) { return os.OpenFile(os.DevNull, os.O_RDWR, 0) }
)

type pipePair struct {
	r, w *os.File
}

func (p *pipePair) close() {
	if p == nil {
		return
	}
	_ = p.r.Close()
	_ = p.w.Close()
}

// childEnd is the end handed to the child for stream i.
func (p *pipePair) childEnd(i int) *os.File {
	if i == 0 {
		return p.r
	}
	return p.w
}

// callerEnd is the end kept by the parent for stream i.
func (p *pipePair) callerEnd(i int) *os.File {
	if i == 0 {
		return p.w
	}
	return p.r
}

// stdio holds the descriptors created for one spawn: a pipe per piped stream
// and at most one null device shared by all null streams.
type stdio struct {
	redirects [3]Redirect
	pipes     [3]*pipePair
	null      *os.File
}

// acquireStdio creates pipes in stream order, then the null device. On any
// failure everything created so far is closed before the error is returned.
func acquireStdio(redirects [3]Redirect) (*stdio, error) {
	s := &stdio{redirects: redirects}
	for i, r := range redirects {
		if !r.IsPipe() {
			continue
		}
		rd, wr, err := pipeFunc()
		if err != nil {
			s.release()
			return nil, errors.PipeFailed(streamNames[i], err)
		}
		s.pipes[i] = &pipePair{r: rd, w: wr}
	}
	for i, r := range redirects {
		if r.mode != modeNull {
			continue
		}
		null, err := openNullFunc()
		if err != nil {
			s.release()
			return nil, errors.PipeFailed(streamNames[i], err).WithDetail("device", os.DevNull)
		}
		s.null = null
		break
	}
	return s, nil
}

// childFiles returns the child's descriptor table. Stderr is resolved before
// stdout so that ToStderr copies stderr's final target.
func (s *stdio) childFiles() []uintptr {
	files := make([]uintptr, 3)
	files[0] = s.target(0)
	files[2] = s.target(2)
	if s.redirects[1].mode == modeToStderr {
		files[1] = files[2]
	} else {
		files[1] = s.target(1)
	}
	return files
}

func (s *stdio) target(i int) uintptr {
	r := s.redirects[i]
	switch r.mode {
	case modePipe:
		return s.pipes[i].childEnd(i).Fd()
	case modeNull:
		return s.null.Fd()
	case modeFile:
		return r.file.Fd()
	default:
		return uintptr(i)
	}
}

// release closes every descriptor the stdio created. Used on failure.
func (s *stdio) release() {
	for _, p := range s.pipes {
		p.close()
	}
	if s.null != nil {
		_ = s.null.Close()
	}
}

// handOff runs in the parent after a successful spawn. It closes what now
// belongs to the child and returns the caller ends for stdin, stdout and
// stderr (nil where the stream is not piped).
func (s *stdio) handOff() (in, out, errOut *os.File) {
	var ends [3]*os.File
	for i, p := range s.pipes {
		if p == nil {
			continue
		}
		_ = p.childEnd(i).Close()
		ends[i] = p.callerEnd(i)
	}
	if s.null != nil {
		_ = s.null.Close()
	}
	for _, r := range s.redirects {
		if f := r.ownedFile(); f != nil {
			_ = f.Close()
		}
	}
	return ends[0], ends[1], ends[2]
}
