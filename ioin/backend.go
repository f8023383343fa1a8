// Package ioin implements the pluggable input-backend abstraction: the
// engine reads records from local disk, S3 or HDFS through the same
// Backend contract, the way aistore's BackendProvider lets the rest of the
// system stay oblivious to which cloud a bucket actually lives in.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package ioin

import (
	"context"
	"io"
)

// Backend is the read side of one storage provider: enough to expand a glob
// into concrete paths and open each one for sequential reading. Engines
// never see provider-specific types past this interface.
type Backend interface {
	// Scheme identifies the backend, e.g. "file", "s3", "hdfs".
	Scheme() string

	// List expands glob (provider-native, e.g. a key prefix within the
	// backend's bucket for S3, or an absolute path with shell-style wildcards
	// for local/HDFS) into an ordered list of concrete object paths.
	List(ctx context.Context, glob string) ([]string, error)

	// Open returns a sequential reader for path. Callers are responsible for
	// closing it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Size returns the object's length in bytes, used only for progress
	// reporting; backends that cannot cheaply provide it may return -1.
	Size(ctx context.Context, path string) (int64, error)
}

// Registry resolves a glob's scheme prefix ("s3://", "hdfs://", or none for
// local) to the Backend that should serve it.
type Registry struct {
	backends map[string]Backend
	local    Backend
}

func NewRegistry(local Backend) *Registry {
	return &Registry{backends: make(map[string]Backend), local: local}
}

func (r *Registry) Register(b Backend) { r.backends[b.Scheme()] = b }

// Resolve strips a recognized "scheme://" prefix from glob and returns the
// backend that owns it, plus the remaining provider-native path/glob. A
// glob with no recognized prefix is treated as local.
func (r *Registry) Resolve(glob string) (Backend, string) {
	for scheme, b := range r.backends {
		prefix := scheme + "://"
		if len(glob) > len(prefix) && glob[:len(prefix)] == prefix {
			return b, glob[len(prefix):]
		}
	}
	return r.local, glob
}
