package xzblock

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"hash"
	"hash/crc32"
	"io"
)

// Meta is the codec-level block descriptor carried alongside a pipeline
// block record: version, checksum kind, filter chain, header size and
// compressed/uncompressed sizes. It is set by the encoder worker and
// read by the writer, matching spec.md §3's `meta` field.
type Meta struct {
	Version          byte
	Check            byte
	Filter           Filter
	HeaderSize       int
	CompressedSize   uint64 // payload bytes, excluding header and check
	UncompressedSize uint64
}

// computeHeaderSize computes the block header size this Meta would
// encode to and stores it in HeaderSize, mirroring lzma_block_header_size: it must succeed before encoding can
// proceed (spec.md §4.3 "ask the codec for the encoded block header
// size (must succeed)").
func (m *Meta) computeHeaderSize() error {
	filterData, err := m.Filter.MarshalBinary()
	if err != nil {
		return err
	}
	size := 2 // header-size byte + flags byte
	if m.CompressedSize != VLIUnknown {
		size += vliLen(m.CompressedSize)
	}
	if m.UncompressedSize != VLIUnknown {
		size += vliLen(m.UncompressedSize)
	}
	size += len(filterData)
	size += 4 // CRC32
	// round up to a 4-byte boundary
	size = (size + 3) &^ 3
	if size > 1020 {
		return errors.New("xzblock: block header too large")
	}
	m.HeaderSize = size
	return nil
}

// UnpaddedSize returns the block's unpadded size — header plus
// compressed payload plus the 4-byte check, excluding any trailing
// padding — the quantity the stream-level index records (spec.md §3's
// glossary: "unpadded size").
func (m *Meta) UnpaddedSize() uint64 {
	return uint64(m.HeaderSize) + m.CompressedSize + 4
}

func vliLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// EncodeHeader writes the block header for m.
func (m *Meta) EncodeHeader(w io.Writer) error {
	if m.HeaderSize == 0 {
		if err := m.computeHeaderSize(); err != nil {
			return err
		}
	}
	filterData, err := m.Filter.MarshalBinary()
	if err != nil {
		return err
	}

	buf := make([]byte, 0, m.HeaderSize)
	buf = append(buf, byte(m.HeaderSize/4-1))

	flags := byte(0) // one filter: stored as 0 in the low two bits
	if m.CompressedSize != VLIUnknown {
		flags |= 1 << 6
	}
	if m.UncompressedSize != VLIUnknown {
		flags |= 1 << 7
	}
	buf = append(buf, flags)

	if m.CompressedSize != VLIUnknown {
		buf = putVLI(buf, m.CompressedSize)
	}
	if m.UncompressedSize != VLIUnknown {
		buf = putVLI(buf, m.UncompressedSize)
	}
	buf = append(buf, filterData...)

	for len(buf) < m.HeaderSize-4 {
		buf = append(buf, 0)
	}
	crc := crc32.ChecksumIEEE(buf)
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc)
	buf = append(buf, crcBuf[:]...)

	_, err = w.Write(buf)
	return err
}

// PeekIsIndex reports whether the next byte in r is the index-record
// indicator (0x00) rather than a block header size byte, without
// consuming it. The index indicator is how a reader distinguishes "one
// more block follows" from "the index starts here."
func PeekIsIndex(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(1)
	if err != nil {
		return false, err
	}
	return b[0] == 0, nil
}

// DecodeBlockHeader reads one block header from r. Callers must use
// PeekIsIndex first to confirm a block follows.
func DecodeBlockHeader(r *bufio.Reader) (*Meta, error) {
	sizeByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if sizeByte == 0 {
		return nil, errors.New("xzblock: expected block header, found index indicator")
	}
	headerSize := (int(sizeByte) + 1) * 4
	rest := make([]byte, headerSize-1)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	full := append([]byte{sizeByte}, rest...)
	payload := full[:headerSize-4]
	wantCRC := binary.LittleEndian.Uint32(full[headerSize-4:])
	if crc32.ChecksumIEEE(payload) != wantCRC {
		return nil, errors.New("xzblock: block header CRC mismatch")
	}

	flags := rest[0]
	body := rest[1:]
	br := bytes.NewReader(body)
	m := &Meta{HeaderSize: headerSize, Check: CheckCRC32}
	m.CompressedSize = VLIUnknown
	m.UncompressedSize = VLIUnknown
	if flags&(1<<6) != 0 {
		v, err := readVLI(br)
		if err != nil {
			return nil, err
		}
		m.CompressedSize = v
	}
	if flags&(1<<7) != 0 {
		v, err := readVLI(br)
		if err != nil {
			return nil, err
		}
		m.UncompressedSize = v
	}
	numFilters := int(flags&0x3) + 1
	if numFilters != 1 {
		return nil, errors.New("xzblock: only a single LZMA2 filter is supported")
	}
	filterBuf := make([]byte, filterLen)
	if _, err := io.ReadFull(br, filterBuf); err != nil {
		return nil, err
	}
	if err := m.Filter.UnmarshalBinary(filterBuf); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeBlock compresses the whole of in as one self-contained block
// (header, LZMA2 payload, CRC32 check) into w, mirroring
// lzma_block_buffer_encode. It returns the encoded Meta (with final
// compressed/uncompressed sizes) and the block's unpadded size, the
// quantity the stream-level index records.
func EncodeBlock(w io.Writer, in []byte, dictSize int64) (meta *Meta, unpaddedSize uint64, err error) {
	m := &Meta{
		Version: 0,
		Check:   CheckCRC32,
		Filter:  Filter{DictSize: dictSize},
	}
	m.CompressedSize = VLIUnknown
	m.UncompressedSize = VLIUnknown
	if err := m.computeHeaderSize(); err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	if err := m.EncodeHeader(&buf); err != nil {
		return nil, 0, err
	}
	headerLen := buf.Len()

	enc, err := newBlockEncoder(&buf, int(dictSize))
	if err != nil {
		return nil, 0, err
	}
	if _, err := enc.Write(in); err != nil {
		return nil, 0, err
	}
	if err := enc.Close(); err != nil {
		return nil, 0, err
	}
	payloadLen := buf.Len() - headerLen

	crc := crc32.NewIEEE()
	crc.Write(in)
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc.Sum32())
	buf.Write(crcBuf[:])

	m.CompressedSize = uint64(payloadLen)
	m.UncompressedSize = uint64(len(in))

	padded := pad4(buf.Len())
	for buf.Len() < padded {
		buf.WriteByte(0)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, 0, err
	}
	unpaddedSize = m.UnpaddedSize()
	return m, unpaddedSize, nil
}

func pad4(n int) int { return (n + 3) &^ 3 }

// DecodeBlockPayload reads and decompresses one block's payload given
// its already-decoded Meta, verifying the trailing CRC32 and consuming
// the padding that follows it. r must be positioned immediately after
// the block header.
func DecodeBlockPayload(r *bufio.Reader, m *Meta) ([]byte, error) {
	if m.CompressedSize == VLIUnknown || m.UncompressedSize == VLIUnknown {
		return nil, errors.New("xzblock: block sizes must be known to decode")
	}
	lr := io.LimitReader(r, int64(m.CompressedSize))
	dec, err := newBlockDecoder(lr, int(m.Filter.DictSize))
	if err != nil {
		return nil, err
	}
	out := make([]byte, m.UncompressedSize)
	if _, err := io.ReadFull(dec, out); err != nil {
		return nil, err
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(out) != binary.LittleEndian.Uint32(crcBuf[:]) {
		return nil, errors.New("xzblock: block CRC mismatch")
	}

	unpadded := m.HeaderSize + int(m.CompressedSize) + 4
	if n := pad4(unpadded) - unpadded; n > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BlockWriter streams a block's payload through the LZMA2 encoder in
// caller-supplied chunks, for use when the payload (the file index) is
// too large, or simply inconvenient, to materialize in full before
// encoding — mirroring write_file_index_buf's RUN/FINISH actions.
type BlockWriter struct {
	w         io.Writer
	meta      *Meta
	enc       io.WriteCloser
	cw        *countWriter
	check     hash.Hash32
	headerLen int
}

// NewBlockWriter emits the block header immediately and returns a writer
// ready to accept payload bytes.
func NewBlockWriter(w io.Writer, dictSize int64) (*BlockWriter, error) {
	m := &Meta{
		Version: 0,
		Check:   CheckCRC32,
		Filter:  Filter{DictSize: dictSize},
	}
	m.CompressedSize = VLIUnknown
	m.UncompressedSize = VLIUnknown
	if err := m.computeHeaderSize(); err != nil {
		return nil, err
	}
	if err := m.EncodeHeader(w); err != nil {
		return nil, err
	}
	cw := &countWriter{w: w}
	enc, err := newBlockEncoder(cw, int(dictSize))
	if err != nil {
		return nil, err
	}
	return &BlockWriter{w: w, meta: m, enc: enc, cw: cw, check: crc32.NewIEEE(), headerLen: m.HeaderSize}, nil
}

// Write feeds more uncompressed payload bytes through the encoder and
// into the CRC32 check.
func (bw *BlockWriter) Write(p []byte) (int, error) {
	n, err := bw.enc.Write(p)
	bw.check.Write(p[:n])
	return n, err
}

// Finish flushes the encoder, appends the CRC32 check and padding to the
// underlying writer, and returns the finished Meta plus the block's
// unpadded size (the quantity the stream index records).
func (bw *BlockWriter) Finish(uncompressedSize uint64) (*Meta, uint64, error) {
	if err := bw.enc.Close(); err != nil {
		return nil, 0, err
	}
	bw.meta.CompressedSize = uint64(bw.cw.n)
	bw.meta.UncompressedSize = uncompressedSize

	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], bw.check.Sum32())
	if _, err := bw.w.Write(crcBuf[:]); err != nil {
		return nil, 0, err
	}

	unpadded := uint64(bw.headerLen) + bw.meta.CompressedSize + 4
	padded := pad4(int(unpadded))
	if n := padded - int(unpadded); n > 0 {
		if _, err := bw.w.Write(make([]byte, n)); err != nil {
			return nil, 0, err
		}
	}
	return bw.meta, unpadded, nil
}

// countWriter counts the compressed bytes written through it, giving
// BlockWriter the payload's compressed size without buffering the whole
// compressed payload.
type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
