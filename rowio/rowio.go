// Package rowio reads and writes streams of serialized values.
//
// A stream is a sequence of frames.  Each frame holds one or more tagged
// values in self-describing form and starts with a 9-byte header:
//
//	format(1) length(4) stored(4)
//
// where length is the size of the values and stored is the size of the
// frame body that follows, which differs from length when the body is
// LZ4-compressed.  Frames are cut once their values reach the writer's
// threshold, so a value never spans frames.
package rowio

import (
	"fmt"

	"github.com/alecthomas/units"
)

type CompressionFormat byte

const (
	CompressionFormatNone CompressionFormat = 0
	CompressionFormatLZ4  CompressionFormat = 1
)

const (
	FrameHeaderSize    = 9
	DefaultFrameThresh = 512 * 1024
	// MaxFrameSize bounds the frame lengths a reader accepts.
	MaxFrameSize = 64 * 1024 * 1024
)

type WriterOpts struct {
	Compress    bool
	FrameThresh int
}

// ParseFrameThresh parses a frame threshold such as "64KiB" or "1MB".
func ParseFrameThresh(s string) (int, error) {
	n, err := units.ParseStrictBytes(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > MaxFrameSize {
		return 0, fmt.Errorf("frame threshold %s out of range (max %s)", s, units.Base2Bytes(MaxFrameSize))
	}
	return int(n), nil
}
