// Package pipeline implements the parallel block-oriented encoder: the
// read -> encode -> write pipeline that turns an input tar stream into
// a sequence of independently decodable xz blocks plus a trailing
// file-index block, and the stream-level index and footer that close
// the container.
package pipeline

import (
	"io"
	"sync"

	"github.com/timgates42/pixz/xzblock"
)

// Run drives one full encode: reads a tar stream from in, writes a
// pixz-format xz stream to out, using numWorkers encoder goroutines.
// It implements spec.md §2's three-stage pipeline end to end.
func Run(in io.Reader, out io.Writer, numWorkers int) error {
	preset := xzblock.DefaultPreset
	pool := NewPool(numWorkers, preset)

	if err := xzblock.EncodeStreamHeader(out); err != nil {
		Fatal("pixz: error writing stream header: %v", err)
		return err
	}

	idx := xzblock.NewIndex()

	var encWG sync.WaitGroup
	encWG.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go runEncoder(pool, preset, &encWG)
	}

	type readerResult struct {
		fi  *FileIndex
		err error
	}
	readerDone := make(chan readerResult, 1)
	go func() {
		fi, err := runReader(in, pool, &encWG)
		readerDone <- readerResult{fi, err}
	}()

	if err := runWriter(out, pool, idx); err != nil {
		return err
	}

	res := <-readerDone
	if res.err != nil {
		return res.err
	}

	if err := writeFileIndexBlock(out, res.fi, preset, idx); err != nil {
		return err
	}

	backwardSize, err := idx.Encode(out)
	if err != nil {
		Fatal("pixz: error encoding stream index: %v", err)
		return err
	}
	if err := xzblock.EncodeStreamFooter(out, backwardSize); err != nil {
		Fatal("pixz: error writing stream footer: %v", err)
		return err
	}

	if err := checkPoolDrained(pool); err != nil {
		return err
	}

	return nil
}

// writeFileIndexBlock emits the one additional block whose payload is
// the file-index serialization, streamed through the block encoder in
// CHUNKSIZE-sized pieces so large archives never require materializing
// the whole index at once — spec.md §4.5.
func writeFileIndexBlock(out io.Writer, fi *FileIndex, preset xzblock.Preset, idx *xzblock.Index) error {
	bw, err := xzblock.NewBlockWriter(out, preset.DictSize)
	if err != nil {
		Fatal("pixz: error starting file-index block: %v", err)
		return err
	}

	var chunk []byte
	var total uint64
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if _, err := bw.Write(chunk); err != nil {
			return err
		}
		total += uint64(len(chunk))
		chunk = chunk[:0]
		return nil
	}

	for _, e := range fi.Entries() {
		chunk = appendSerialized(chunk, e)
		if len(chunk) >= CHUNKSIZE {
			if err := flush(); err != nil {
				Fatal("pixz: error writing file index: %v", err)
				return err
			}
		}
	}
	if err := flush(); err != nil {
		Fatal("pixz: error writing file index: %v", err)
		return err
	}

	meta, unpadded, err := bw.Finish(total)
	if err != nil {
		Fatal("pixz: error finishing file-index block: %v", err)
		return err
	}
	idx.Append(unpadded, meta.UncompressedSize)
	return nil
}

// checkPoolDrained verifies the buffer-pool closure property (spec.md
// §8): at successful exit every block record created at startup is
// back in freeQ.
func checkPoolDrained(pool *Pool) error {
	want := pool.numEncoders*2 + 4
	got := len(pool.freeQ)
	if got != want {
		Fatal("pixz: internal error: %d of %d blocks not returned to the free queue", want-got, want)
		return errNotDrained
	}
	return nil
}
