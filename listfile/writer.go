package listfile

import (
	"encoding/binary"
	"io"

	"github.com/pierrec/lz4/v3"
)

// Writer frames records into fixed-size blocks and, when Compress is set,
// runs each block through LZ4 before it reaches the underlying file - LZ4 is
// the default block codec for list files (gzip is reserved for TEXT output).
type Writer struct {
	w        io.Writer
	Compress bool
	meta     map[string]string

	buf         []byte // current block, pre-compression
	headerDone  bool
}

func NewWriter(w io.Writer, meta map[string]string) *Writer {
	return &Writer{w: w, meta: meta, buf: make([]byte, 0, BlockSize)}
}

func (lw *Writer) writeHeader() error {
	if lw.headerDone {
		return nil
	}
	var hdr []byte
	hdr = append(hdr, Magic[:]...)
	hdr = append(hdr, byte(Version))
	var cnt [4]byte
	binary.BigEndian.PutUint32(cnt[:], uint32(len(lw.meta)))
	hdr = append(hdr, cnt[:]...)
	for k, v := range lw.meta {
		hdr = appendString(hdr, k)
		hdr = appendString(hdr, v)
	}
	if _, err := lw.w.Write(hdr); err != nil {
		return err
	}
	lw.headerDone = true
	return nil
}

func appendString(b []byte, s string) []byte {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(s)))
	b = append(b, l[:]...)
	return append(b, s...)
}

// WriteRecord appends one logical record, fragmenting it across block
// boundaries as needed. Records are atomic from the reader's perspective:
// ReadRecord never returns a partial record even if it spans blocks.
func (lw *Writer) WriteRecord(rec []byte) error {
	if err := lw.writeHeader(); err != nil {
		return err
	}
	first := true
	for {
		avail := BlockSize - len(lw.buf) - recHeaderSize
		if avail <= 0 {
			if err := lw.flushBlock(); err != nil {
				return err
			}
			avail = BlockSize - recHeaderSize
		}
		n := len(rec)
		if n > avail {
			n = avail
		}
		typ := recFull
		switch {
		case first && n < len(rec):
			typ = recFirst
		case !first && n < len(rec):
			typ = recMiddle
		case !first && n == len(rec):
			typ = recLast
		}
		lw.appendChunk(typ, rec[:n])
		rec = rec[n:]
		first = false
		if len(rec) == 0 {
			return nil
		}
		if err := lw.flushBlock(); err != nil {
			return err
		}
	}
}

func (lw *Writer) appendChunk(typ recType, payload []byte) {
	var hdr [recHeaderSize]byte
	hdr[0] = byte(typ)
	binary.BigEndian.PutUint32(hdr[1:5], uint32(len(payload)))
	binary.BigEndian.PutUint32(hdr[5:9], checksum(payload))
	lw.buf = append(lw.buf, hdr[:]...)
	lw.buf = append(lw.buf, payload...)
}

func (lw *Writer) flushBlock() error {
	if len(lw.buf) == 0 {
		return nil
	}
	payload := lw.buf
	if lw.Compress {
		compressed := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, compressed, nil)
		if err != nil {
			return err
		}
		if n > 0 && n < len(payload) {
			var szHdr [5]byte
			szHdr[0] = 1 // compressed flag
			binary.BigEndian.PutUint32(szHdr[1:], uint32(n))
			if _, err := lw.w.Write(szHdr[:]); err != nil {
				return err
			}
			if _, err := lw.w.Write(compressed[:n]); err != nil {
				return err
			}
			lw.buf = lw.buf[:0]
			return nil
		}
	}
	var szHdr [5]byte
	szHdr[0] = 0 // uncompressed
	binary.BigEndian.PutUint32(szHdr[1:], uint32(len(payload)))
	if _, err := lw.w.Write(szHdr[:]); err != nil {
		return err
	}
	if _, err := lw.w.Write(payload); err != nil {
		return err
	}
	lw.buf = lw.buf[:0]
	return nil
}

// Close flushes any buffered partial block. It does not close the
// underlying writer, matching the rest of the engine's handle ownership.
func (lw *Writer) Close() error {
	if err := lw.writeHeader(); err != nil {
		return err
	}
	return lw.flushBlock()
}
