package eventq

import "testing"

func TestTryEnqueueFull(t *testing.T) {
	q := NewQueue(2)
	if !q.TryEnqueue(Event{AntID: 0}) || !q.TryEnqueue(Event{AntID: 1}) {
		t.Fatal("enqueue into empty queue failed")
	}
	if q.TryEnqueue(Event{AntID: 2}) {
		t.Error("enqueue into full queue succeeded")
	}
	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2", q.Len())
	}
}

func TestDequeueBulkOrder(t *testing.T) {
	q := NewQueue(10)
	for i := 0; i < 7; i++ {
		q.TryEnqueue(Event{AntID: i, Offset: i * 10})
	}

	dst := make([]Event, 5)
	n := q.DequeueBulk(dst)
	if n != 5 {
		t.Fatalf("first bulk = %d, want 5", n)
	}
	for i := 0; i < 5; i++ {
		if dst[i].AntID != i {
			t.Errorf("event %d has AntID %d", i, dst[i].AntID)
		}
	}

	n = q.DequeueBulk(dst)
	if n != 2 {
		t.Fatalf("second bulk = %d, want 2", n)
	}
	n = q.DequeueBulk(dst)
	if n != 0 {
		t.Errorf("empty bulk = %d, want 0", n)
	}
}
