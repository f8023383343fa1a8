// Command mr3 is a minimal example driver: it reads text records from the
// input globs given on the command line, maps each line through an
// identity transform, and writes them sharded across --num_shards shards.
// Real pipelines link against package table directly; this binary exists to
// exercise the engine end-to-end the way a user program would.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/crc32"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/romange/mr3/cmn/nlog"
	"github.com/romange/mr3/codec"
	"github.com/romange/mr3/diskpool"
	"github.com/romange/mr3/ioin"
	"github.com/romange/mr3/mrexec"
	"github.com/romange/mr3/schema"
	"github.com/romange/mr3/stats"
	"github.com/romange/mr3/table"
)

const diskPoolSize = 128

func main() {
	var (
		destDir   string
		compress  bool
		numShards uint
		httpPort  int
	)
	home, _ := os.UserHomeDir()
	flag.StringVar(&destDir, "dest_dir", filepath.Join(home, "mr_output"), "output root directory")
	flag.BoolVar(&compress, "compress", false, "gzip-compress text output")
	flag.UintVar(&numShards, "num_shards", 1, "number of output shards")
	flag.IntVar(&httpPort, "http_port", -1, "serve Prometheus metrics on this port; -1 disables")
	nlog.InitFlags(flag.CommandLine)
	flag.Parse()

	globs := flag.Args()
	if len(globs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: mr3 [flags] <input-glob>...")
		os.Exit(2)
	}

	reg := stats.NewRegistry()
	if httpPort >= 0 {
		go serveMetrics(reg, httpPort)
	}

	pool := diskpool.New(diskPoolSize)
	defer pool.Shutdown()

	backends := ioin.NewRegistry(ioin.LocalBackend{})

	p := table.NewPipeline(destDir, pool, backends, runtime.NumCPU())
	p.Driver.Stats = reg

	lines := table.ReadText[string](p, "lines", globs, codec.Identity{})
	out := table.Map(lines, "copy", codec.Identity{}, func(s string, dc *mrexec.DoContext[string]) {
		dc.Write(s)
	})
	out.WithModNSharding(uint32(numShards), func(s string) uint32 { return crc32.ChecksumIEEE([]byte(s)) })
	if compress {
		out.AndCompress(schema.GZIP, 0)
	}

	if err := p.Run(context.Background()); err != nil {
		nlog.Errorf("pipeline failed: %v", err)
		os.Exit(1)
	}
}

func serveMetrics(reg *stats.Registry, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		nlog.Errorf("metrics server: %v", err)
	}
}
