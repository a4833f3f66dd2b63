package pipeline

import (
	"io"

	"github.com/timgates42/pixz/xzblock"
)

// runWriter is the writer stage. It pops encoded blocks from writeQ,
// holding out-of-order arrivals in a small pending list, and drains as
// many in-order blocks as possible on every arrival, appending each to
// out and registering it with idx — spec.md §4.4.
//
// The pending list never exceeds 2N+4 entries (Pool's total block
// count), so a linear scan for the next seq is the right tool: per
// spec.md §9's design note, an ordered map here would be
// over-engineering.
func runWriter(out io.Writer, pool *Pool, idx *xzblock.Index) error {
	var pending []*Block
	nextSeq := uint64(0)

	for {
		m := pool.writeQ.pop()
		if m.typ == msgStop {
			break
		}
		pending = append(pending, m.block)

		for {
			i := indexOfSeq(pending, nextSeq)
			if i < 0 {
				break
			}
			b := pending[i]
			if _, err := out.Write(b.Output[:b.OutSize]); err != nil {
				Fatal("pixz: error writing block %d: %v", b.Seq, err)
				return err
			}
			idx.Append(b.Meta.UnpaddedSize(), b.Meta.UncompressedSize)

			pending = append(pending[:i], pending[i+1:]...)
			pool.freeQ.pushData(b)
			nextSeq++
		}
	}
	return nil
}

func indexOfSeq(pending []*Block, seq uint64) int {
	for i, b := range pending {
		if b.Seq == seq {
			return i
		}
	}
	return -1
}
