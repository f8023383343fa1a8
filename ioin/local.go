package ioin

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBackend reads from the local filesystem. Globs support the usual
// shell wildcards within a path segment, plus a "**" segment meaning "zero
// or more directories", e.g. "/data/**/*.txt".
type LocalBackend struct{}

func (LocalBackend) Scheme() string { return "file" }

func (LocalBackend) List(_ context.Context, glob string) ([]string, error) {
	segs := strings.Split(filepath.ToSlash(glob), "/")
	star := -1
	for i, s := range segs {
		if s == "**" {
			star = i
			break
		}
	}
	if star < 0 {
		matches, err := filepath.Glob(glob)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		return matches, nil
	}

	root := strings.Join(segs[:star], "/")
	if root == "" {
		root = "/"
	}
	suffix := strings.Join(segs[star+1:], "/")

	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		ok, err := filepath.Match(suffix, filepath.ToSlash(rel))
		if err == nil && ok {
			out = append(out, path)
			return nil
		}
		// suffix may itself contain directories (e.g. "sub/*.txt"); match
		// just the base name against the last pattern segment as a fallback.
		if ok2, _ := filepath.Match(filepath.Base(suffix), filepath.Base(path)); ok2 {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (LocalBackend) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (LocalBackend) Size(_ context.Context, path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return -1, err
	}
	return fi.Size(), nil
}
