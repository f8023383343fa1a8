package stats

import "github.com/lufia/iostat"

// DiskStat is a snapshot of one block device's cumulative counters, the
// portable equivalent of aistore's ios package /proc/diskstats reader.
type DiskStat struct {
	Name         string
	ReadCount    uint64
	ReadBytes    uint64
	WriteCount   uint64
	WriteBytes   uint64
}

// ReadDiskStats returns one entry per block device the host reports. It is
// advisory only: no engine package calls it, and the engine makes no
// scheduling decisions based on it.
func ReadDiskStats() ([]DiskStat, error) {
	drives, err := iostat.ReadDriveStats()
	if err != nil {
		return nil, err
	}
	out := make([]DiskStat, 0, len(drives))
	for _, d := range drives {
		out = append(out, DiskStat{
			Name:       d.Name,
			ReadCount:  uint64(d.ReadCount),
			ReadBytes:  uint64(d.BytesRead),
			WriteCount: uint64(d.WriteCount),
			WriteBytes: uint64(d.BytesWritten),
		})
	}
	return out, nil
}
