// Package fs provides the small amount of local filesystem introspection
// the engine needs: a free-space check run before opening a destination
// handle. A nearly-full disk only produces a logged warning there; the
// open itself goes ahead.
/*
 * Copyright (c) 2021-2023, NVIDIA CORPORATION. All rights reserved.
 */
package fs

import (
	"fmt"
	"syscall"
)

// AvailableBytes reports free space on the filesystem backing path, the
// portable core of what aistore's makeFsInfo used `df` and Statfs for -
// this module only needs the byte count, not the mountpath/FS-type
// bookkeeping that accompanied it.
func AvailableBytes(path string) (int64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %q: %w", path, err)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}
