package xzblock

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestFilterMarshalRoundTrip(t *testing.T) {
	tests := []int64{minDictSize, 1 << 20, 8 << 20, 64 << 20}
	for _, size := range tests {
		f := Filter{DictSize: size}
		data, err := f.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary(%d): %v", size, err)
		}
		if len(data) != filterLen {
			t.Fatalf("filter record length = %d, want %d", len(data), filterLen)
		}
		var got Filter
		if err := got.UnmarshalBinary(data); err != nil {
			t.Fatalf("UnmarshalBinary: %v", err)
		}
		// The dictionary-size byte encoding is lossy (a geometric
		// table), so the round trip only guarantees the decoded size
		// is large enough to hold the original.
		if got.DictSize < size {
			t.Fatalf("decoded dict size %d smaller than requested %d", got.DictSize, size)
		}
	}
}

func TestBlockHeaderEncodeDecodeRoundTrip(t *testing.T) {
	m := &Meta{Filter: Filter{DictSize: 8 << 20}}
	m.CompressedSize = VLIUnknown
	m.UncompressedSize = VLIUnknown

	var buf bytes.Buffer
	if err := m.EncodeHeader(&buf); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	if buf.Len()%4 != 0 {
		t.Fatalf("header length %d is not a multiple of 4", buf.Len())
	}

	r := bufio.NewReader(&buf)
	isIndex, err := PeekIsIndex(r)
	if err != nil {
		t.Fatalf("PeekIsIndex: %v", err)
	}
	if isIndex {
		t.Fatal("block header misread as index indicator")
	}

	got, err := DecodeBlockHeader(r)
	if err != nil {
		t.Fatalf("DecodeBlockHeader: %v", err)
	}
	if got.HeaderSize != m.HeaderSize {
		t.Fatalf("header size = %d, want %d", got.HeaderSize, m.HeaderSize)
	}
	if got.CompressedSize != VLIUnknown || got.UncompressedSize != VLIUnknown {
		t.Fatalf("expected unknown sizes, got %d/%d", got.CompressedSize, got.UncompressedSize)
	}
	if got.Filter.DictSize < m.Filter.DictSize {
		t.Fatalf("decoded dict size %d smaller than %d", got.Filter.DictSize, m.Filter.DictSize)
	}
}

func TestEncodeDecodeBlockRoundTrip(t *testing.T) {
	const dictSize = 1 << 20
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"small", []byte("hello, pixz")},
		{"repetitive", bytes.Repeat([]byte("abcabcabc "), 10000)},
		{"text", []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 500))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			meta, unpadded, err := EncodeBlock(&buf, tc.in, dictSize)
			if err != nil {
				t.Fatalf("EncodeBlock: %v", err)
			}
			if unpadded != meta.UnpaddedSize() {
				t.Fatalf("unpadded size %d != meta.UnpaddedSize() %d", unpadded, meta.UnpaddedSize())
			}
			if buf.Len()%4 != 0 {
				t.Fatalf("encoded block length %d is not a multiple of 4", buf.Len())
			}

			r := bufio.NewReader(bytes.NewReader(buf.Bytes()))
			isIndex, err := PeekIsIndex(r)
			if err != nil {
				t.Fatalf("PeekIsIndex: %v", err)
			}
			if isIndex {
				t.Fatal("block misread as index")
			}
			decMeta, err := DecodeBlockHeader(r)
			if err != nil {
				t.Fatalf("DecodeBlockHeader: %v", err)
			}
			decMeta.CompressedSize = meta.CompressedSize
			decMeta.UncompressedSize = meta.UncompressedSize

			out, err := DecodeBlockPayload(r, decMeta)
			if err != nil {
				t.Fatalf("DecodeBlockPayload: %v", err)
			}
			if !bytes.Equal(out, tc.in) {
				t.Fatalf("decoded payload does not match input (got %d bytes, want %d)", len(out), len(tc.in))
			}
		})
	}
}

func TestBlockWriterRoundTrip(t *testing.T) {
	const dictSize = 1 << 20
	chunks := [][]byte{
		[]byte("file-index entry one\x00"),
		[]byte("file-index entry two\x00"),
		bytes.Repeat([]byte("x"), 5000),
	}
	var want []byte
	for _, c := range chunks {
		want = append(want, c...)
	}

	var buf bytes.Buffer
	bw, err := NewBlockWriter(&buf, dictSize)
	if err != nil {
		t.Fatalf("NewBlockWriter: %v", err)
	}
	for _, c := range chunks {
		if _, err := bw.Write(c); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	meta, unpadded, err := bw.Finish(uint64(len(want)))
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if unpadded != meta.UnpaddedSize() {
		t.Fatalf("unpadded size %d != meta.UnpaddedSize() %d", unpadded, meta.UnpaddedSize())
	}
	if buf.Len()%4 != 0 {
		t.Fatalf("encoded block length %d is not a multiple of 4", buf.Len())
	}

	r := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	decMeta, err := DecodeBlockHeader(r)
	if err != nil {
		t.Fatalf("DecodeBlockHeader: %v", err)
	}
	decMeta.CompressedSize = meta.CompressedSize
	decMeta.UncompressedSize = meta.UncompressedSize

	out, err := DecodeBlockPayload(r, decMeta)
	if err != nil {
		t.Fatalf("DecodeBlockPayload: %v", err)
	}
	if !bytes.Equal(out, want) {
		t.Fatalf("decoded payload does not match input (got %d bytes, want %d)", len(out), len(want))
	}
}
