// Package xzblock implements the parts of the xz container format that
// the pixz pipeline needs directly: stream header/footer, block header,
// single-shot and streaming block encode, and the stream-level index.
//
// It deliberately does not reimplement LZMA2 entropy coding; that is
// delegated to github.com/ulikunitz/xz/lzma, the same codec the teacher
// package (github.com/ulikunitz/xz) ships. This package only owns the
// container bookkeeping around it — the part the real package keeps
// unexported.
package xzblock

import (
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// Filter identifiers recognized by the xz format. Only the LZMA2 filter
// is produced or consumed here; the format allows a chain, but spec.md
// fixes the filter chain to the single preconfigured LZMA2 filter.
const (
	filterLZMA2 = 0x21
	filterLen   = 3
	minDictSize = 1 << 12
)

// Filter is the LZMA2 filter record stored in a block header: a
// dictionary-size property encoded the way the xz format requires.
type Filter struct {
	DictSize int64
}

func (f Filter) String() string {
	return fmt.Sprintf("LZMA2 dict cap %#x", f.DictSize)
}

// MarshalBinary encodes the filter as it appears in a block header: id,
// properties size (always 1), properties byte. The dictionary-size
// property byte itself is encoded by lzma.EncodeDictSize, the same
// geometric-table function the teacher's lzmafilter.go calls rather
// than rederiving.
func (f Filter) MarshalBinary() ([]byte, error) {
	c := lzma.EncodeDictSize(f.DictSize)
	return []byte{filterLZMA2, 1, c}, nil
}

// UnmarshalBinary decodes a filter record from a block header.
func (f *Filter) UnmarshalBinary(data []byte) error {
	if len(data) != filterLen {
		return errors.New("xzblock: filter record has wrong length")
	}
	if data[0] != filterLZMA2 {
		return errors.New("xzblock: unsupported filter id")
	}
	if data[1] != 1 {
		return errors.New("xzblock: wrong filter property size")
	}
	dc, err := lzma.DecodeDictSize(data[2])
	if err != nil {
		return err
	}
	f.DictSize = dc
	return nil
}

// newBlockEncoder compresses a single block's raw bytes into an LZMA2
// chunk sequence in one shot, writing through w. dictSize is the
// dictionary size recorded in the filter for this stream.
func newBlockEncoder(w io.Writer, dictSize int) (lzma.Writer2, error) {
	cfg := lzma.Writer2Config{DictSize: dictSize}
	// Each block is already being compressed by one of the pipeline's
	// own encoder goroutines; nested internal parallelism would just
	// contend for the same CPUs.
	cfg.Workers = 1
	return lzma.NewWriter2Config(w, cfg)
}

// newBlockDecoder decompresses an LZMA2 chunk sequence read from r.
func newBlockDecoder(r io.Reader, dictSize int) (io.ReadCloser, error) {
	cfg := lzma.Reader2Config{DictSize: dictSize, Workers: 1}
	return lzma.NewReader2Config(r, cfg)
}
