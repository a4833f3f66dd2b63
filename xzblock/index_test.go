package xzblock

import (
	"bufio"
	"bytes"
	"reflect"
	"testing"
)

func TestIndexEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
	}{
		{"empty", nil},
		{"single", []Record{{UnpaddedSize: 100, UncompressedSize: 200}}},
		{
			"several",
			[]Record{
				{UnpaddedSize: 1024, UncompressedSize: 4096},
				{UnpaddedSize: 2048, UncompressedSize: 8192},
				{UnpaddedSize: 16, UncompressedSize: 12},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx := NewIndex()
			for _, r := range tc.records {
				idx.Append(r.UnpaddedSize, r.UncompressedSize)
			}

			var buf bytes.Buffer
			n, err := idx.Encode(&buf)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if n != uint64(buf.Len()) {
				t.Fatalf("Encode returned length %d, buffer has %d bytes", n, buf.Len())
			}
			if buf.Len()%4 != 0 {
				t.Fatalf("encoded index length %d is not a multiple of 4", buf.Len())
			}

			r := bufio.NewReader(&buf)
			isIndex, err := PeekIsIndex(r)
			if err != nil {
				t.Fatalf("PeekIsIndex: %v", err)
			}
			if !isIndex {
				t.Fatal("expected the index indicator byte")
			}

			got, err := DecodeIndex(r)
			if err != nil {
				t.Fatalf("DecodeIndex: %v", err)
			}
			want := tc.records
			if len(want) == 0 {
				want = []Record{}
			}
			if !reflect.DeepEqual(got.Records(), want) {
				t.Fatalf("got records %+v, want %+v", got.Records(), want)
			}
		})
	}
}

func TestDecodeIndexRejectsCorruption(t *testing.T) {
	idx := NewIndex()
	idx.Append(100, 200)
	var buf bytes.Buffer
	if _, err := idx.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data := buf.Bytes()
	data[len(data)-1] ^= 0xff // flip a bit in the trailing CRC

	r := bufio.NewReader(bytes.NewReader(data))
	if _, err := DecodeIndex(r); err == nil {
		t.Fatal("expected a CRC mismatch error")
	}
}
