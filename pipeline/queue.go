package pipeline

// msgType tags a queue message, mirroring original_source/write.c's
// MSG_BLOCK / MSG_STOP enum. spec.md §4.1 calls for a queue that is
// "strictly FIFO for equally-typed messages" and delivers STOP like any
// other message; a buffered Go channel of typed messages is the direct
// translation of that bounded FIFO, so no separate queue library is
// introduced (spec.md names the generic work queue as an out-of-scope
// collaborator specified only by interface).
type msgType int

const (
	msgData msgType = iota
	msgStop
)

// msg is one queue message: a block payload tagged with its type.
type msg struct {
	typ   msgType
	block *Block
}

// queue is a bounded FIFO of msg values, safe for concurrent
// multi-producer/multi-consumer use via the channel runtime.
type queue chan msg

// newQueue creates a queue with the given capacity.
func newQueue(capacity int) queue {
	return make(queue, capacity)
}

// pushData enqueues a data message, blocking if the queue is full.
func (q queue) pushData(b *Block) {
	q <- msg{typ: msgData, block: b}
}

// pushStop enqueues a STOP message.
func (q queue) pushStop() {
	q <- msg{typ: msgStop}
}

// pop dequeues the next message, blocking if the queue is empty.
func (q queue) pop() msg {
	return <-q
}
