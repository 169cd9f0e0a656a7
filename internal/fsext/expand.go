package fsext

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yumosx/lazyscroll/internal/env"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Expand is a wrapper around [expand.Literal]. It will escape the input
// string, expand any shell symbols (such as '~') and resolve any environment
// variables from e.
func Expand(s string, e env.Env) (string, error) {
	if s == "" {
		return "", nil
	}
	p := syntax.NewParser()
	word, err := p.Document(strings.NewReader(s))
	if err != nil {
		return "", err
	}
	cfg := &expand.Config{
		Env: expand.FuncEnviron(e.Get),
	}
	return expand.Literal(cfg, word)
}

// ExpandPath expands s and resolves the result against dir when it is
// relative.
func ExpandPath(s, dir string, e env.Env) (string, error) {
	path, err := Expand(s, e)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", s, err)
	}
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(dir, path), nil
}
