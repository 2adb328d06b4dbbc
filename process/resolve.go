package process

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecPathEnv names the environment variable holding the managed exec path,
// a list of directories separated like PATH.
const ExecPathEnv = "PROCSPAWN_EXEC_PATH"

// ExecPathResolver locates managed subcommands. A managed name "foo" runs
// the first executable Prefix+"foo" found in Dirs, falling back to a PATH
// search for Prefix+"foo".
type ExecPathResolver struct {
	Dirs   []string `json:"dirs,omitempty" mapstructure:"exec_path"`
	Prefix string   `json:"prefix,omitempty" mapstructure:"managed_prefix"`
}

// ExecPathFromEnv returns a resolver whose Dirs come from ExecPathEnv.
func ExecPathFromEnv(prefix string) *ExecPathResolver {
	return &ExecPathResolver{
		Dirs:   filepath.SplitList(os.Getenv(ExecPathEnv)),
		Prefix: prefix,
	}
}

// Name returns the program name a managed subcommand runs as.
func (r *ExecPathResolver) Name(name string) string {
	if r == nil {
		return name
	}
	return r.Prefix + name
}

// Resolve returns the path of the executable for managed subcommand name.
func (r *ExecPathResolver) Resolve(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("managed subcommand %q must be a bare name", name)
	}
	full := r.Name(name)
	if r != nil {
		for _, dir := range r.Dirs {
			if dir == "" {
				continue
			}
			p := filepath.Join(dir, full)
			if err := checkExecutable(p); err == nil {
				return p, nil
			}
		}
	}
	return exec.LookPath(full)
}

// defaultSearchPath is searched for bare program names when the child's
// environment has no PATH.
const defaultSearchPath = "/bin:/usr/bin"

// lookPath resolves a regular program name for a child running in dir with
// environment env. Bare names are searched on the PATH in env. Names
// containing a slash are checked relative to dir, since the child changes
// into dir before exec, and are returned unchanged.
func lookPath(name, dir string, env []string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		if err := checkExecutable(inDir(dir, name)); err != nil {
			return "", err
		}
		return name, nil
	}

	search, ok := lookupEnv(env, "PATH")
	if !ok {
		search = defaultSearchPath
	}
	for _, entry := range filepath.SplitList(search) {
		if entry == "" {
			entry = "."
		}
		candidate := filepath.Join(entry, name)
		if err := checkExecutable(inDir(dir, candidate)); err != nil {
			continue
		}
		if !strings.ContainsRune(candidate, filepath.Separator) {
			candidate = "." + string(filepath.Separator) + candidate
		}
		return candidate, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// inDir returns path as seen from a process whose working directory is dir.
func inDir(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func lookupEnv(env []string, name string) (string, bool) {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == name {
			return v, true
		}
	}
	return "", false
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return &fs.PathError{Op: "exec", Path: path, Err: fs.ErrPermission}
	}
	return nil
}
