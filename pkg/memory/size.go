package memory

import (
	"github.com/dustin/go-humanize"
)

// Size is an amount of memory in bytes.
type Size int64

const (
	Byte     Size = 1
	Kilobyte Size = 1000
	Megabyte Size = 1000 * Kilobyte
	Gigabyte Size = 1000 * Megabyte
)

// Bytes returns the size as a plain byte count.
func (s Size) Bytes() int64 { return int64(s) }

// String formats the size for humans, e.g. "100 MB".
func (s Size) String() string {
	if s < 0 {
		return "-" + humanize.Bytes(uint64(-s))
	}
	return humanize.Bytes(uint64(s))
}

// ParseSize parses strings such as "100 MB", "1.5GiB" or "4096".
func ParseSize(str string) (Size, error) {
	n, err := humanize.ParseBytes(str)
	if err != nil {
		return 0, err
	}
	return Size(n), nil
}
