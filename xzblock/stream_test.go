package xzblock

import (
	"bytes"
	"testing"
)

func TestStreamHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeStreamHeader(&buf); err != nil {
		t.Fatalf("EncodeStreamHeader: %v", err)
	}
	if buf.Len() != HeaderLen {
		t.Fatalf("header length = %d, want %d", buf.Len(), HeaderLen)
	}

	check, err := DecodeStreamHeader(&buf)
	if err != nil {
		t.Fatalf("DecodeStreamHeader: %v", err)
	}
	if check != CheckCRC32 {
		t.Fatalf("check kind = %d, want %d", check, CheckCRC32)
	}
}

func TestStreamHeaderBadMagic(t *testing.T) {
	buf := bytes.NewReader(make([]byte, HeaderLen))
	if _, err := DecodeStreamHeader(buf); err == nil {
		t.Fatal("expected an error decoding a zeroed header")
	}
}

func TestStreamFooterRoundTrip(t *testing.T) {
	for _, backwardSize := range []uint64{4, 16, 4096} {
		var buf bytes.Buffer
		if err := EncodeStreamFooter(&buf, backwardSize); err != nil {
			t.Fatalf("EncodeStreamFooter(%d): %v", backwardSize, err)
		}
		got, check, err := DecodeStreamFooter(&buf)
		if err != nil {
			t.Fatalf("DecodeStreamFooter: %v", err)
		}
		if got != backwardSize {
			t.Fatalf("backward size = %d, want %d", got, backwardSize)
		}
		if check != CheckCRC32 {
			t.Fatalf("check kind = %d, want %d", check, CheckCRC32)
		}
	}
}

func TestStreamFooterRejectsBadBackwardSize(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeStreamFooter(&buf, 3); err == nil {
		t.Fatal("expected an error for a non-multiple-of-4 backward size")
	}
	if err := EncodeStreamFooter(&buf, 0); err == nil {
		t.Fatal("expected an error for a zero backward size")
	}
}
