// Package env abstracts the process environment so that configuration
// loading can run against a fixed set of variables.
package env

import (
	"os"
	"strconv"
)

type Env interface {
	Get(key string) string
	Env() []string
}

type osEnv struct{}

// Get implements Env.
func (o *osEnv) Get(key string) string {
	return os.Getenv(key)
}

// Env implements Env.
func (o *osEnv) Env() []string {
	env := os.Environ()
	if len(env) == 0 {
		return nil
	}
	return env
}

// New returns the process environment.
func New() Env {
	return &osEnv{}
}

type mapEnv map[string]string

// Get implements Env.
func (m mapEnv) Get(key string) string {
	return m[key]
}

// Env implements Env.
func (m mapEnv) Env() []string {
	if len(m) == 0 {
		return nil
	}
	env := make([]string, 0, len(m))
	for k, v := range m {
		env = append(env, k+"="+v)
	}
	return env
}

// NewFromMap returns an environment holding exactly the variables in m.
func NewFromMap(m map[string]string) Env {
	return mapEnv(m)
}

// Bool reports whether key holds a true value as understood by
// strconv.ParseBool. Unset and malformed values are false.
func Bool(e Env, key string) bool {
	v, err := strconv.ParseBool(e.Get(key))
	return err == nil && v
}
