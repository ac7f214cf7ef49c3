package mqtt

import "testing"

func qmsg(n byte) outbound {
	return outbound{topic: Topic, payload: []byte{n}, qos: 1}
}

func TestOfflineQueueFIFO(t *testing.T) {
	q := newOfflineQueue(4)

	q.add(qmsg(1))
	q.add(qmsg(2))
	q.add(qmsg(3))
	if q.size() != 3 {
		t.Fatalf("size = %d, want 3", q.size())
	}

	msgs, dropped := q.takeAll()
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(msgs) != 3 {
		t.Fatalf("took %d, want 3", len(msgs))
	}
	for i, m := range msgs {
		if m.payload[0] != byte(i+1) {
			t.Errorf("msgs[%d] = %d, want %d", i, m.payload[0], i+1)
		}
	}
	if q.size() != 0 {
		t.Errorf("size after takeAll = %d, want 0", q.size())
	}
}

func TestOfflineQueueTakeAllEmpty(t *testing.T) {
	q := newOfflineQueue(4)
	msgs, dropped := q.takeAll()
	if msgs != nil || dropped != 0 {
		t.Errorf("takeAll on empty = %v, %d", msgs, dropped)
	}
}

func TestOfflineQueueOverflowDropsOldest(t *testing.T) {
	q := newOfflineQueue(3)

	for n := byte(1); n <= 5; n++ {
		q.add(qmsg(n))
	}
	if q.size() != 3 {
		t.Fatalf("size = %d, want 3", q.size())
	}

	msgs, dropped := q.takeAll()
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	want := []byte{3, 4, 5}
	for i, m := range msgs {
		if m.payload[0] != want[i] {
			t.Errorf("msgs[%d] = %d, want %d", i, m.payload[0], want[i])
		}
	}
}

func TestOfflineQueueReusableAfterTakeAll(t *testing.T) {
	q := newOfflineQueue(2)

	q.add(qmsg(1))
	q.add(qmsg(2))
	q.add(qmsg(3)) // drops 1
	q.takeAll()

	q.add(qmsg(9))
	msgs, dropped := q.takeAll()
	if dropped != 0 {
		t.Errorf("dropped carried over: %d", dropped)
	}
	if len(msgs) != 1 || msgs[0].payload[0] != 9 {
		t.Errorf("after reuse got %v", msgs)
	}
}

func TestOfflineQueuePreservesMessageFields(t *testing.T) {
	q := newOfflineQueue(2)
	q.add(outbound{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})

	msgs, _ := q.takeAll()
	if msgs[0].topic != TopicSystem || !msgs[0].retained || msgs[0].qos != 1 {
		t.Errorf("fields not preserved: %+v", msgs[0])
	}
}
