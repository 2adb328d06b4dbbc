package process

import "strings"

// applyEnv returns base with overrides applied in order. "NAME=VALUE" sets or
// replaces NAME; a bare "NAME" removes it. base is not modified.
func applyEnv(base, overrides []string) []string {
	if len(overrides) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(overrides))
	index := make(map[string]int, len(base))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if i, ok := index[name]; ok {
			env[i] = kv
			continue
		}
		index[name] = len(env)
		env = append(env, kv)
	}

	removed := false
	for _, o := range overrides {
		name, _, set := strings.Cut(o, "=")
		i, ok := index[name]
		switch {
		case set && ok:
			env[i] = o
		case set:
			index[name] = len(env)
			env = append(env, o)
		case ok:
			env[i] = ""
			delete(index, name)
			removed = true
		}
	}
	if !removed {
		return env
	}

	out := env[:0]
	for _, kv := range env {
		if kv != "" {
			out = append(out, kv)
		}
	}
	return out
}
