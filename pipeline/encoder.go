package pipeline

import (
	"bytes"
	"sync"

	"github.com/timgates42/pixz/xzblock"
)

// runEncoder is one of N identical encoder workers. It loops popping
// from encQ; on STOP it exits. On a DATA message it single-shot
// compresses input[0:insize] into a self-contained block and posts the
// encoded record to writeQ. Workers do not coordinate with each other
// and do not preserve seq order — spec.md §4.3.
func runEncoder(pool *Pool, preset xzblock.Preset, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		m := pool.encQ.pop()
		if m.typ == msgStop {
			return
		}
		b := m.block

		var buf bytes.Buffer
		meta, _, err := xzblock.EncodeBlock(&buf, b.Input[:b.InSize], preset.DictSize)
		if err != nil {
			Fatal("pixz: error encoding block %d: %v", b.Seq, err)
			return
		}
		if buf.Len() > len(b.Output) {
			Fatal("pixz: encoded block %d exceeds reserved output capacity", b.Seq)
			return
		}
		b.OutSize = copy(b.Output, buf.Bytes())
		b.Meta = meta

		pool.writeQ.pushData(b)
	}
}
