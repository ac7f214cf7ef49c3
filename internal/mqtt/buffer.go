package mqtt

// outbound is a serialized message waiting for the broker connection.
type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue is a bounded FIFO holding messages published while the
// broker is unreachable. When full, the oldest message is discarded so the
// replay always carries the most recent safety events. Callers must
// synchronize access.
type offlineQueue struct {
	msgs    []outbound
	max     int
	dropped int // discarded to overflow since the last takeAll
}

func newOfflineQueue(max int) *offlineQueue {
	return &offlineQueue{max: max}
}

func (q *offlineQueue) add(m outbound) {
	if len(q.msgs) >= q.max {
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = m
		q.dropped++
		return
	}
	q.msgs = append(q.msgs, m)
}

// takeAll empties the queue, returning the messages oldest first and the
// number discarded to overflow.
func (q *offlineQueue) takeAll() ([]outbound, int) {
	msgs, dropped := q.msgs, q.dropped
	q.msgs = nil
	q.dropped = 0
	return msgs, dropped
}

func (q *offlineQueue) size() int {
	return len(q.msgs)
}
