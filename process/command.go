package process

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/validation"
)

// Command describes one child process. A Command spawns at most one child;
// create a new one for every run.
type Command struct {
	// Argv is the program and its arguments. Argv[0] is looked up in PATH
	// unless it contains a slash, or through the managed exec path when
	// Managed is set.
	Argv []string `json:"argv" validate:"argv"`
	// Dir is the child's working directory. Empty means the parent's.
	Dir string `json:"dir,omitempty" validate:"omitempty,dir"`
	// Env lists overrides applied in order to the parent's environment:
	// "NAME=VALUE" sets NAME, a bare "NAME" removes it.
	Env []string `json:"env,omitempty" validate:"dive,envoverride"`

	Stdin  Redirect `json:"-" validate:"-"`
	Stdout Redirect `json:"-" validate:"-"`
	Stderr Redirect `json:"-" validate:"-"`

	// Managed resolves Argv[0] as a managed subcommand.
	Managed bool `json:"managed,omitempty"`

	// Set by Start.
	Pid   int      `json:"pid,omitempty" validate:"-"`
	RunID string   `json:"run_id,omitempty" validate:"-"`
	In    *os.File `json:"-" validate:"-"`
	Out   *os.File `json:"-" validate:"-"`
	Err   *os.File `json:"-" validate:"-"`

	started time.Time
}

func (c *Command) redirects() [3]Redirect {
	return [3]Redirect{c.Stdin, c.Stdout, c.Stderr}
}

// Options is the bitmask accepted by RunV and friends.
type Options uint

const (
	// NoStdin connects the child's stdin to the null device.
	NoStdin Options = 1 << iota
	// Managed resolves argv[0] as a managed subcommand.
	Managed
	// StdoutToStderr sends the child's stdout to its stderr.
	StdoutToStderr
)

// NewCommand builds a Command from argv and opts. Streams not named by opts
// are inherited from the parent.
func NewCommand(argv []string, opts Options) *Command {
	cmd := &Command{
		Argv:    argv,
		Stdin:   Inherit,
		Stdout:  Inherit,
		Stderr:  Inherit,
		Managed: opts&Managed != 0,
	}
	if opts&NoStdin != 0 {
		cmd.Stdin = Null
	}
	if opts&StdoutToStderr != 0 {
		cmd.Stdout = ToStderr
	}
	return cmd
}

func init() {
	validation.RegisterValidation("argv", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		return f.Len() > 0 && f.Index(0).String() != ""
	}, "must name a program to run")

	validation.RegisterValidation("envoverride", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && !strings.HasPrefix(s, "=") && !strings.ContainsRune(s, 0)
	}, "must be NAME=VALUE or NAME")

	validation.RegisterStructValidation(validateRedirects, Command{})
	validation.RegisterMessage("notostderr", "only stdout can be sent to stderr")
	validation.RegisterMessage("nilfile", "file redirect needs a non-nil handle")
}

func validateRedirects(sl validator.StructLevel) {
	c := sl.Current().Interface().(Command)
	streams := []struct {
		name, field string
		r           Redirect
	}{
		{"stdin", "Stdin", c.Stdin},
		{"stdout", "Stdout", c.Stdout},
		{"stderr", "Stderr", c.Stderr},
	}
	for _, s := range streams {
		if s.r.mode == modeFile && s.r.file == nil {
			sl.ReportError(s.r.String(), s.name, s.field, "nilfile", "")
		}
		if s.r.mode == modeToStderr && s.name != "stdout" {
			sl.ReportError(s.r.String(), s.name, s.field, "notostderr", "")
		}
	}
}

// validate checks a Command before anything is created for it.
func (c *Command) validate() error {
	if c.Pid != 0 {
		return errors.InvalidCommand("command already started").WithDetail("pid", c.Pid)
	}
	if err := validation.Validate(c); err != nil {
		appErr, ok := errors.AsAppError(err)
		if !ok {
			return errors.InvalidCommand(err.Error())
		}
		return errors.InvalidCommand(appErr.Message).WithDetails(appErr.Details)
	}
	return nil
}
