package pipeline

import "github.com/timgates42/pixz/xzblock"

// Block is the unit of pipelined work, recycled across the three
// stages. It is owned by exactly one stage at a time — whichever queue
// currently holds it, or whichever goroutine just popped it — matching
// spec.md §3's ownership-transfer invariant: writing to any field while
// a block sits in a queue is forbidden.
type Block struct {
	Seq uint64

	Input  []byte
	InSize int

	Output  []byte
	OutSize int

	Meta *xzblock.Meta
}

// reset clears a block for reuse by the reader, without reallocating
// its buffers.
func (b *Block) reset(seq uint64) {
	b.Seq = seq
	b.InSize = 0
	b.OutSize = 0
	b.Meta = nil
}

// Pool holds the fixed set of block records that circulate between the
// reader, encoder and writer stages, plus the three queues connecting
// them. 2N+4 records are allocated once at startup and freed at
// shutdown, matching spec.md §4.1 and the original's sizing rationale
// in §9: enough for every encoder to have one block in hand and one
// queued, plus a margin so the reader never stalls waiting on freeQ.
type Pool struct {
	freeQ  queue
	encQ   queue
	writeQ queue

	blockInSize  int
	blockOutSize int

	numEncoders int
}

// NewPool allocates numEncoders*2+4 block records sized for preset and
// places them all on freeQ.
func NewPool(numEncoders int, preset xzblock.Preset) *Pool {
	blockInSize := int(preset.BlockInSize())
	blockOutSize := int(preset.BlockOutSize())

	count := numEncoders*2 + 4
	p := &Pool{
		freeQ:        newQueue(count),
		encQ:         newQueue(count),
		writeQ:       newQueue(count),
		blockInSize:  blockInSize,
		blockOutSize: blockOutSize,
		numEncoders:  numEncoders,
	}
	for i := 0; i < count; i++ {
		b := &Block{
			Input:  make([]byte, blockInSize),
			Output: make([]byte, blockOutSize),
		}
		p.freeQ.pushData(b)
	}
	return p
}
