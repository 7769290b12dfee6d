package env

import (
	"os"
	"strings"
)

// Var holds K=V pairs.
type Var map[string]string

// Env composes the environment handed to a launched engine daemon:
// the OS environment as base, global overrides from config, then
// per-launch overrides.
type Env struct {
	Var Var // global overrides (K->V)
	env Var // cached base from OS environment
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS caches the current process environment as the base.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if k, v, ok := splitKV(kv); ok {
			base[k] = v
		}
	}
	e.env = base
}

// WithoutOS pins an empty base so Merge does not fall back to the
// process environment.
func (e *Env) WithoutOS() *Env {
	e.env = make(Var)
	return e
}

// WithSet returns e with the global override k=v applied.
func (e *Env) WithSet(k, v string) *Env {
	if e.Var == nil {
		e.Var = make(Var)
	}
	if k != "" {
		e.Var[k] = v
	}
	return e
}

// Unset removes a global override.
func (e *Env) Unset(k string) {
	if e.Var != nil {
		delete(e.Var, k)
	}
}

// Merge builds the final "K=V" environment slice. Precedence is
// OS base, then global overrides, then perLaunch entries. ${VAR}
// placeholders are expanded once against the composed map.
func (e *Env) Merge(perLaunch []string) []string {
	if e.env == nil {
		e.FromOS()
	}
	m := make(Var, len(e.env)+len(e.Var)+len(perLaunch))
	for k, v := range e.env {
		m[k] = v
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	for _, kv := range perLaunch {
		if k, v, ok := splitKV(kv); ok {
			m[k] = v
		}
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+expand(v, m))
	}
	return out
}

// splitKV splits "K=V" and rejects malformed or empty-key entries.
func splitKV(kv string) (string, string, bool) {
	i := strings.IndexByte(kv, '=')
	if i <= 0 {
		return "", "", false
	}
	return kv[:i], kv[i+1:], true
}

// expand substitutes ${VAR} placeholders from m. Single pass, no
// recursion, unknown placeholders are left as-is.
func expand(s string, m Var) string {
	if !strings.Contains(s, "${") {
		return s
	}
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}
