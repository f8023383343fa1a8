package ioin

import (
	"bufio"
	"context"
	"io"

	"github.com/romange/mr3/listfile"
	"github.com/romange/mr3/schema"
)

// yieldEvery is how often scanText and scanList check the cancellation flag -
// frequently enough that a cancelled pipeline stops promptly, rarely enough
// that the check never shows up in a profile.
const yieldEvery = 1000

// RecordFunc is called once per record read; returning false stops the scan
// early without treating it as an error (used to implement cancellation).
type RecordFunc func(rec []byte) (more bool)

// ScanFile opens path through backend and feeds every record it contains to
// fn, in the wire format named by format. Corruption in a LIST file is
// reported through onCorrupt; the scan skips a bad chunk or an undecodable
// block and continues, while a corrupt block size header ends the scan of
// that file. Corruption has no analogue for TEXT, which has no framing to
// desynchronize.
func ScanFile(ctx context.Context, backend Backend, path string, format schema.WireFormat,
	cancelled func() bool, onCorrupt func(path string, blockBytes int, err error), fn RecordFunc) error {

	rc, err := backend.Open(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()

	switch format {
	case schema.LIST:
		return scanList(rc, path, cancelled, onCorrupt, fn)
	default:
		return scanText(rc, cancelled, fn)
	}
}

func scanText(r io.Reader, cancelled func() bool, fn RecordFunc) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		if n%yieldEvery == 0 && cancelled() {
			return nil
		}
		line := sc.Bytes()
		cp := make([]byte, len(line))
		copy(cp, line)
		if !fn(cp) {
			return nil
		}
	}
	return sc.Err()
}

func scanList(r io.Reader, path string, cancelled func() bool, onCorrupt func(string, int, error), fn RecordFunc) error {
	report := func(p string, n int, err error) {
		if onCorrupt != nil {
			onCorrupt(p, n, err)
		}
	}
	lr, err := listfile.NewReader(r, path, report)
	if err != nil {
		return err
	}
	n := 0
	for {
		rec, ok := lr.ReadRecord()
		if !ok {
			return nil
		}
		n++
		if n%yieldEvery == 0 && cancelled() {
			return nil
		}
		if !fn(rec) {
			return nil
		}
	}
}
