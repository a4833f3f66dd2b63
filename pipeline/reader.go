package pipeline

import (
	"io"
	"sync"

	tar "github.com/vbatts/tar-split/archive/tar"
)

// blockFiller is the reader stage's pull adapter: its Read method is
// handed directly to the tar parser as its source, so every byte the
// parser asks for (header bytes, member content, padding) flows
// through here. This realizes Design Note (a) in spec.md §9: a
// stateful adapter object whose one method is the parser callback.
type blockFiller struct {
	pool *Pool
	src  io.Reader

	cur       *Block
	nextSeq   uint64
	totalRead uint64
}

func newBlockFiller(pool *Pool, src io.Reader) *blockFiller {
	return &blockFiller{pool: pool, src: src}
}

// Read fills the current block (acquiring a fresh one from freeQ if
// needed) up to CHUNKSIZE bytes at a time, posting it to encQ once full
// and starting a new one on the next call. Mirrors
// original_source/write.c's tar_read.
func (f *blockFiller) Read(p []byte) (int, error) {
	if f.cur == nil {
		f.cur = f.pool.freeQ.pop().block
		f.cur.reset(f.nextSeq)
		f.nextSeq++
	}

	space := len(f.cur.Input) - f.cur.InSize
	if space > CHUNKSIZE {
		space = CHUNKSIZE
	}
	if space > len(p) {
		space = len(p)
	}

	n, err := f.src.Read(f.cur.Input[f.cur.InSize : f.cur.InSize+space])
	f.cur.InSize += n
	f.totalRead += uint64(n)
	copy(p, f.cur.Input[f.cur.InSize-n:f.cur.InSize])

	if f.cur.InSize == len(f.cur.Input) {
		f.pool.encQ.pushData(f.cur)
		f.cur = nil
	}
	return n, err
}

// flush disposes of whatever block is in progress when the tar stream
// ends: posted to encQ if it holds data, otherwise returned unused to
// freeQ, matching "if this block had only one read, and it was EOF,
// it's waste."
func (f *blockFiller) flush() {
	if f.cur == nil {
		return
	}
	if f.cur.InSize > 0 {
		f.pool.encQ.pushData(f.cur)
	} else {
		f.pool.freeQ.pushData(f.cur)
	}
	f.cur = nil
}

// tarBlockSize is the fixed block size the tar format pads member
// content to.
const tarBlockSize = 512

// tarEntryPadding returns the number of padding bytes the tar format
// appends after size bytes of member content to reach the next
// tarBlockSize boundary (0 if size is already a multiple of it).
func tarEntryPadding(size int64) uint64 {
	if size <= 0 {
		return 0
	}
	if rem := uint64(size) % tarBlockSize; rem != 0 {
		return tarBlockSize - rem
	}
	return 0
}

// runReader drives the tar parser to completion, building the file
// index, then stops every encoder and joins them, per spec.md §4.2's
// termination sequence. It returns the completed file index.
//
// Encoders and the writer must be stopped on every exit path, not just
// the success path: runWriter is blocked waiting on writeQ, and the
// encoders are blocked waiting on encQ, so a reader error that skipped
// the termination sequence would leave both stages parked forever.
func runReader(in io.Reader, pool *Pool, encWG *sync.WaitGroup) (*FileIndex, error) {
	filler := newBlockFiller(pool, in)
	tr := tar.NewReader(filler)
	fi := NewFileIndex()

	readErr := func() error {
		var prevSize int64
		havePrev := false
		for {
			// tr.Next() defers skipping the previous entry's
			// unread content and trailing padding to this call,
			// so filler.totalRead here still only reflects bytes
			// through the end of the previous entry's content —
			// the padding that follows it hasn't been consumed
			// yet. Add it back in now so offset lands on the
			// true header start instead of inside that padding.
			offset := filler.totalRead
			if havePrev {
				offset += tarEntryPadding(prevSize)
			}

			hdr, err := tr.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				Fatal("pixz: error reading tar entry: %v", err)
				return err
			}
			fi.AddHeader(offset, hdr.Name)
			prevSize = hdr.Size
			havePrev = true

			if _, err := io.Copy(io.Discard, tr); err != nil {
				Fatal("pixz: error reading tar entry body: %v", err)
				return err
			}
		}
	}()

	fi.Finish(filler.totalRead)
	filler.flush()

	for i := 0; i < pool.numEncoders; i++ {
		pool.encQ.pushStop()
	}
	encWG.Wait()
	pool.writeQ.pushStop()

	if readErr != nil {
		return nil, readErr
	}
	return fi, nil
}
