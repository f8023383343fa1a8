package listfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v3"
)

// CorruptionReporter is invoked once per corrupt block or chunk encountered.
// A bad chunk or an undecodable block is skipped and reading resumes after
// it; a block whose size header is implausible or whose bytes are cut short
// ends the read.
type CorruptionReporter func(path string, blockBytes int, err error)

type Reader struct {
	r      io.Reader
	path   string
	report CorruptionReporter
	meta   map[string]string

	pending []byte // assembled bytes of an in-progress fragmented record
	block   []byte // current decoded block, not yet consumed
}

func NewReader(r io.Reader, path string, report CorruptionReporter) (*Reader, error) {
	lr := &Reader{r: r, path: path, report: report}
	if err := lr.readHeader(); err != nil {
		return nil, err
	}
	return lr, nil
}

func (lr *Reader) Meta() map[string]string { return lr.meta }

func (lr *Reader) readHeader() error {
	var magic [4]byte
	if _, err := io.ReadFull(lr.r, magic[:]); err != nil {
		return fmt.Errorf("list file header: %w", err)
	}
	if magic != Magic {
		return errors.New("list file: bad magic")
	}
	var vb [1]byte
	if _, err := io.ReadFull(lr.r, vb[:]); err != nil {
		return err
	}
	var cntb [4]byte
	if _, err := io.ReadFull(lr.r, cntb[:]); err != nil {
		return err
	}
	cnt := binary.BigEndian.Uint32(cntb[:])
	lr.meta = make(map[string]string, cnt)
	for i := uint32(0); i < cnt; i++ {
		k, err := lr.readString()
		if err != nil {
			return err
		}
		v, err := lr.readString()
		if err != nil {
			return err
		}
		lr.meta[k] = v
	}
	return nil
}

func (lr *Reader) readString() (string, error) {
	var l [4]byte
	if _, err := io.ReadFull(lr.r, l[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(l[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(lr.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// nextBlock reads and decompresses the next on-disk block, reporting
// corruption instead of returning it as a hard error. A block that fails to
// decompress is skipped (the block is left empty, so ReadRecord moves on to
// the next one). An implausible size header or a short read ends the read,
// since the next block boundary cannot be located.
func (lr *Reader) nextBlock() (ok bool) {
	var hdr [5]byte
	if _, err := io.ReadFull(lr.r, hdr[:]); err != nil {
		return false
	}
	compressed := hdr[0] == 1
	size := binary.BigEndian.Uint32(hdr[1:])
	if size > 16*BlockSize {
		lr.report(lr.path, int(size), errors.New("implausible block size"))
		return false
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(lr.r, raw); err != nil {
		lr.report(lr.path, int(size), err)
		return false
	}
	if !compressed {
		lr.block = raw
		return true
	}
	// Compressed blocks were bounded by BlockSize pre-compression; over-allocate
	// a little since LZ4 block framing here carries no explicit uncompressed size.
	dst := make([]byte, BlockSize*2)
	n, err := lz4.UncompressBlock(raw, dst)
	if err != nil {
		lr.report(lr.path, int(size), err)
		lr.block = nil
		return true
	}
	lr.block = dst[:n]
	return true
}

// ReadRecord yields the next logical record, reassembling fragments
// transparently. It returns false at EOF or on unrecoverable corruption.
func (lr *Reader) ReadRecord() ([]byte, bool) {
	for {
		if len(lr.block) == 0 {
			if !lr.nextBlock() {
				return nil, false
			}
			continue
		}
		if len(lr.block) < recHeaderSize {
			lr.report(lr.path, len(lr.block), errors.New("truncated chunk header"))
			lr.block = nil
			continue
		}
		typ := recType(lr.block[0])
		n := binary.BigEndian.Uint32(lr.block[1:5])
		crc := binary.BigEndian.Uint32(lr.block[5:9])
		lr.block = lr.block[recHeaderSize:]
		if int(n) > len(lr.block) {
			lr.report(lr.path, len(lr.block), errors.New("chunk length exceeds block"))
			lr.block = nil
			continue
		}
		payload := lr.block[:n]
		lr.block = lr.block[n:]
		if checksum(payload) != crc {
			lr.report(lr.path, len(payload), errors.New("CRC mismatch"))
			lr.pending = lr.pending[:0]
			continue
		}

		switch typ {
		case recFull:
			return payload, true
		case recFirst:
			lr.pending = append(lr.pending[:0], payload...)
		case recMiddle:
			lr.pending = append(lr.pending, payload...)
		case recLast:
			lr.pending = append(lr.pending, payload...)
			out := lr.pending
			lr.pending = nil
			return out, true
		default:
			lr.report(lr.path, len(payload), fmt.Errorf("unknown chunk type %d", typ))
		}
	}
}
