package process

import (
	"fmt"
	"os"
)

type redirectMode int

const (
	modePipe redirectMode = iota
	modeInherit
	modeNull
	modeToStderr
	modeFile
)

// Redirect says where one standard stream of the child goes. The zero value
// is Pipe.
type Redirect struct {
	mode redirectMode
	file *os.File
}

var (
	// Pipe connects the stream to a new pipe whose caller end is exposed on
	// the Command (In for stdin, Out and Err for stdout and stderr).
	Pipe = Redirect{}
	// Inherit leaves the parent's descriptor in place.
	Inherit = Redirect{mode: modeInherit}
	// Null connects the stream to the null device.
	Null = Redirect{mode: modeNull}
	// ToStderr makes stdout a duplicate of the child's stderr. Only valid
	// for Stdout.
	ToStderr = Redirect{mode: modeToStderr}
)

// File hands f to the child as the stream. When Start succeeds and f is not
// one of the parent's own standard streams, the Command takes ownership of f
// and closes it in the parent.
func File(f *os.File) Redirect {
	return Redirect{mode: modeFile, file: f}
}

// IsPipe reports whether the stream is piped back to the caller.
func (r Redirect) IsPipe() bool { return r.mode == modePipe }

// String returns a short description for logs and error messages.
func (r Redirect) String() string {
	switch r.mode {
	case modePipe:
		return "pipe"
	case modeInherit:
		return "inherit"
	case modeNull:
		return "null"
	case modeToStderr:
		return "stderr"
	case modeFile:
		if r.file == nil {
			return "file(nil)"
		}
		return fmt.Sprintf("file(%s)", r.file.Name())
	default:
		return fmt.Sprintf("redirect(%d)", int(r.mode))
	}
}

// ownedFile returns the caller-supplied handle the parent should close after
// a successful spawn, or nil. The parent's own stdin, stdout and stderr are
// never closed.
func (r Redirect) ownedFile() *os.File {
	if r.mode != modeFile || r.file == nil || r.file.Fd() <= 2 {
		return nil
	}
	return r.file
}
