// Package listfile implements the binary, block-compressed record container
// ("list file") used as the wire format for structured (non-text) shards.
// A file is a fixed header followed by a sequence of blocks of at most 64KiB;
// records may fragment across block boundaries, the way the WAL/SSTable
// families of formats this engine borrows from do it.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package listfile

import "hash/crc32"

// Magic + version identify the format at the start of every list file.
var Magic = [4]byte{'M', 'R', '3', 'L'}

const Version = 1

// BlockSize is the largest uncompressed block the writer flushes; records
// longer than what remains of a block are fragmented across blocks.
const BlockSize = 64 * 1024

// recType tags each on-disk record chunk, the same FULL/FIRST/MIDDLE/LAST
// scheme LevelDB-style logs use to let records span block boundaries, plus
// an ARRAY variant for densely packing many small records into one chunk.
type recType uint8

const (
	recFull recType = iota + 1
	recFirst
	recMiddle
	recLast
	recArray
)

// recHeaderSize: 1 byte type + 4 bytes length + 4 bytes CRC32.
const recHeaderSize = 1 + 4 + 4

var crcTable = crc32.MakeTable(crc32.Castagnoli)

func checksum(b []byte) uint32 { return crc32.Checksum(b, crcTable) }
