package xzblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// CheckCRC32 is the only checksum kind this implementation produces,
// matching original_source/write.c's fixed CHECK constant. spec.md never
// asks for check-kind selection, so it is not exposed as an option.
const CheckCRC32 = 1

var headerMagic = [6]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
var footerMagic = [2]byte{'Y', 'Z'}

// HeaderLen and FooterLen are the fixed sizes of the stream edges.
const (
	HeaderLen = 12
	FooterLen = 12
)

// EncodeStreamHeader writes the 12-byte stream header: magic, stream
// flags (version 0, fixed checksum kind), CRC32 of the flags.
func EncodeStreamHeader(w io.Writer) error {
	var buf [HeaderLen]byte
	copy(buf[0:6], headerMagic[:])
	buf[6] = 0
	buf[7] = CheckCRC32
	binary.LittleEndian.PutUint32(buf[8:12], crc32.ChecksumIEEE(buf[6:8]))
	_, err := w.Write(buf[:])
	return err
}

// EncodeStreamFooter writes the 12-byte stream footer. backwardSize is
// the exact byte length of the just-written index record.
func EncodeStreamFooter(w io.Writer, backwardSize uint64) error {
	if backwardSize == 0 || backwardSize%4 != 0 {
		return errors.New("xzblock: backward size must be a positive multiple of 4")
	}
	var buf [FooterLen]byte
	binary.LittleEndian.PutUint32(buf[4:8], uint32(backwardSize/4-1))
	buf[8] = 0
	buf[9] = CheckCRC32
	copy(buf[10:12], footerMagic[:])
	binary.LittleEndian.PutUint32(buf[0:4], crc32.ChecksumIEEE(buf[4:10]))
	_, err := w.Write(buf[:])
	return err
}

// DecodeStreamHeader reads and validates a stream header, returning the
// checksum kind recorded in it.
func DecodeStreamHeader(r io.Reader) (checkKind byte, err error) {
	var buf [HeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	if !bytes.Equal(buf[0:6], headerMagic[:]) {
		return 0, errors.New("xzblock: bad stream header magic")
	}
	if crc32.ChecksumIEEE(buf[6:8]) != binary.LittleEndian.Uint32(buf[8:12]) {
		return 0, errors.New("xzblock: stream header CRC mismatch")
	}
	if buf[6] != 0 {
		return 0, errors.New("xzblock: unsupported stream flags reserved byte")
	}
	return buf[7], nil
}

// DecodeStreamFooter reads and validates a stream footer, returning the
// byte length of the index record that precedes it.
func DecodeStreamFooter(r io.Reader) (backwardSize uint64, checkKind byte, err error) {
	var buf [FooterLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, err
	}
	if !bytes.Equal(buf[10:12], footerMagic[:]) {
		return 0, 0, errors.New("xzblock: bad stream footer magic")
	}
	if crc32.ChecksumIEEE(buf[4:10]) != binary.LittleEndian.Uint32(buf[0:4]) {
		return 0, 0, errors.New("xzblock: stream footer CRC mismatch")
	}
	backwardSize = (uint64(binary.LittleEndian.Uint32(buf[4:8])) + 1) * 4
	return backwardSize, buf[9], nil
}
