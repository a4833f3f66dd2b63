package xzblock

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"sync"
)

// Record is one entry of the stream-level index: a block's unpadded and
// uncompressed sizes, in the order the block was written.
type Record struct {
	UnpaddedSize     uint64
	UncompressedSize uint64
}

// Index is the codec-owned structure listing, for every compressed
// block in stream order, (unpadded_size, uncompressed_size). Populated
// exclusively by the writer stage, in the same order bytes are
// appended to the output file (spec.md §3).
type Index struct {
	mu      sync.Mutex
	records []Record
}

// NewIndex returns an empty index, analogous to lzma_index_init.
func NewIndex() *Index { return &Index{} }

// Append records one more block, mirroring lzma_index_append.
func (idx *Index) Append(unpaddedSize, uncompressedSize uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.records = append(idx.records, Record{unpaddedSize, uncompressedSize})
}

// Records returns a copy of the accumulated records in stream order.
func (idx *Index) Records() []Record {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]Record, len(idx.records))
	copy(out, idx.records)
	return out
}

// Encode writes the index record: indicator byte, record count, each
// record's two VLIs, zero padding to a 4-byte boundary, then CRC32 of
// everything since the indicator byte. It returns the total byte length
// written, the value the stream footer's backward_size field needs.
func (idx *Index) Encode(w io.Writer) (uint64, error) {
	idx.mu.Lock()
	records := make([]Record, len(idx.records))
	copy(records, idx.records)
	idx.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteByte(0x00)
	buf.Write(putVLI(nil, uint64(len(records))))
	for _, r := range records {
		buf.Write(putVLI(nil, r.UnpaddedSize))
		buf.Write(putVLI(nil, r.UncompressedSize))
	}
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	crc := crc32.ChecksumIEEE(buf.Bytes())
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc)
	buf.Write(crcBuf[:])

	if _, err := w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return uint64(buf.Len()), nil
}

// countingByteReader reads one byte at a time from r, recording every
// byte read into body. Using r directly (rather than wrapping it in
// another bufio.Reader) avoids over-reading past the index into
// whatever follows it.
type countingByteReader struct {
	r    *bufio.Reader
	body *bytes.Buffer
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		return 0, err
	}
	c.body.WriteByte(b)
	return b, nil
}

// DecodeIndex reads an index record from r, whose first byte must be
// the 0x00 indicator (already confirmed by the caller via PeekIsIndex).
func DecodeIndex(r *bufio.Reader) (*Index, error) {
	var body bytes.Buffer
	cbr := &countingByteReader{r: r, body: &body}

	indicator, err := cbr.ReadByte()
	if err != nil {
		return nil, err
	}
	if indicator != 0x00 {
		return nil, errors.New("xzblock: expected index indicator")
	}
	count, err := readVLI(cbr)
	if err != nil {
		return nil, err
	}
	idx := &Index{records: make([]Record, 0, count)}
	for i := uint64(0); i < count; i++ {
		unpadded, err := readVLI(cbr)
		if err != nil {
			return nil, err
		}
		uncompressed, err := readVLI(cbr)
		if err != nil {
			return nil, err
		}
		idx.records = append(idx.records, Record{unpadded, uncompressed})
	}
	for body.Len()%4 != 0 {
		b, err := cbr.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0 {
			return nil, errors.New("xzblock: non-zero index padding")
		}
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(body.Bytes()) != binary.LittleEndian.Uint32(crcBuf[:]) {
		return nil, errors.New("xzblock: index CRC mismatch")
	}
	return idx, nil
}
