package ioin

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/colinmarc/hdfs/v2"
)

// HDFSBackend reads from an HDFS namenode. Addr is "host:port"; User
// defaults to the OS user the process runs as when empty, matching the
// hdfs client's own default.
type HDFSBackend struct {
	Addr string
	User string

	mu     sync.Mutex
	client *hdfs.Client
}

func (b *HDFSBackend) Scheme() string { return "hdfs" }

func (b *HDFSBackend) ensureClient() (*hdfs.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	opts := hdfs.ClientOptions{Addresses: []string{b.Addr}, User: b.User}
	cl, err := hdfs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	b.client = cl
	return cl, nil
}

// List expands a glob containing a single wildcard-bearing final segment
// (HDFS itself has no native recursive glob); it lists the parent
// directory and matches entries against the base pattern.
func (b *HDFSBackend) List(_ context.Context, glob string) ([]string, error) {
	cl, err := b.ensureClient()
	if err != nil {
		return nil, err
	}
	dir, pattern := filepath.Split(glob)
	if dir == "" {
		dir = "/"
	}
	entries, err := cl.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *HDFSBackend) Open(_ context.Context, path string) (io.ReadCloser, error) {
	cl, err := b.ensureClient()
	if err != nil {
		return nil, err
	}
	return cl.Open(path)
}

func (b *HDFSBackend) Size(_ context.Context, path string) (int64, error) {
	cl, err := b.ensureClient()
	if err != nil {
		return -1, err
	}
	fi, err := cl.Stat(path)
	if err != nil {
		return -1, err
	}
	return fi.Size(), nil
}
