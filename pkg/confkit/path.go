package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// maxRootWalk bounds the upward search for the repository root.
const maxRootWalk = 8

// ProjectRoot locates the repository root. An explicit PROJECT_ROOT
// environment variable wins; otherwise the search walks upward from this
// source file looking for a go.mod or .git marker, and falls back to the
// working directory when neither is found.
func ProjectRoot() (string, error) {
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root, nil
	}
	if root, ok := rootFromCaller(); ok {
		return root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

func rootFromCaller() (string, bool) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", false
	}
	dir := filepath.Dir(file)
	for i := 0; i < maxRootWalk; i++ {
		if fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
	return "", false
}

// MustProjectRoot returns the repository root path or panics on failure.
func MustProjectRoot() string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return root
}

// ProjectPath joins the repository root with the provided relative path.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// MustProjectPath returns ProjectPath(rel) and panics on failure.
func MustProjectPath(rel string) string {
	p, err := ProjectPath(rel)
	if err != nil {
		panic(err)
	}
	return p
}
