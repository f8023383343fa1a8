// Package nlog is the engine's leveled logger: timestamped, optionally
// file-backed, safe for concurrent use by every I/O worker and the disk pool.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{'I', 'W', 'E'}

var (
	mu           sync.Mutex
	out          io.Writer = os.Stderr
	toStderr               = true
	alsoToStderr           = false
	file         *os.File
)

// InitFlags registers the two flags every driver program exposes for log routing.
func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", true, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

// SetOutput redirects file-backed logging (when !toStderr) to dir/name.
func SetOutput(dir, name string) error {
	if dir == "" {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	mu.Lock()
	file = f
	out = f
	mu.Unlock()
	return nil
}

func Flush(exit ...bool) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Sync()
		if len(exit) > 0 && exit[0] {
			file.Close()
		}
	}
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

func log(sev severity, depth int, format string, args ...any) {
	var line strings.Builder
	writeHdr(&line, sev, depth+2)
	if format == "" {
		fmt.Fprintln(&line, args...)
	} else {
		fmt.Fprintf(&line, format, args...)
		if !strings.HasSuffix(line.String(), "\n") {
			line.WriteByte('\n')
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if toStderr || alsoToStderr || sev >= sevWarn || file == nil {
		os.Stderr.WriteString(line.String())
	}
	if file != nil && !toStderr {
		io.WriteString(out, line.String())
	}
}

func writeHdr(b *strings.Builder, sev severity, depth int) {
	_, fn, ln, ok := runtime.Caller(depth)
	if ok {
		if idx := strings.LastIndexByte(fn, filepath.Separator); idx >= 0 {
			fn = fn[idx+1:]
		}
	}
	b.WriteByte(sevChar[sev])
	b.WriteByte(' ')
	b.WriteString(time.Now().Format("15:04:05.000000"))
	b.WriteByte(' ')
	if ok {
		b.WriteString(fn)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(ln))
		b.WriteByte(' ')
	}
}
