// Package mono provides a monotonic clock independent of wall-clock adjustments.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start, on a monotonic clock.
// Only deltas between two NanoTime() values are meaningful.
func NanoTime() int64 { return time.Since(start).Nanoseconds() }

// Since returns the duration elapsed since a prior NanoTime() reading.
func Since(t int64) time.Duration { return time.Duration(NanoTime() - t) }
