// Package confkit holds small configuration helpers shared by the API server
// and the cron binary: path resolution relative to the main config file,
// dotenv bootstrap, and file-backed config sections.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/conf"
)

// ResolvePath expands environment variables in file and resolves it against
// base when it is relative. Absolute paths are returned as-is after expansion.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory holding the main config file, the anchor for
// resolving section file paths.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// LoadFile parses a config file into T using go-zero's conf loader.
// When useEnv is set, ${VAR} references inside the file are expanded.
func LoadFile[T any](path string, useEnv bool) (*T, error) {
	var cfg T
	var opts []conf.Option
	if useEnv {
		opts = append(opts, conf.UseEnv())
	}
	if err := conf.Load(path, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// Section is a config field whose content lives in a separate file next to
// the main config. Value stays nil until Hydrate runs.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate resolves File against base and parses it with loader, storing the
// result in Value. A Section with no File is left untouched.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return err
	}
	s.File, s.Value = p, v
	return nil
}
