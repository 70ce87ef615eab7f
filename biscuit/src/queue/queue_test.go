package queue

import "testing"

func TestFIFOOrder(t *testing.T) {
	var q Queue[int]
	a, b, c := NewElem(1), NewElem(2), NewElem(3)
	q.Append(a)
	q.Append(b)
	q.Append(c)
	if q.Len() != 3 {
		t.Fatalf("len = %d, want 3", q.Len())
	}
	for _, want := range []int{1, 2, 3} {
		e := q.RemoveFirst()
		if e.Val() != want {
			t.Fatalf("got %d, want %d", e.Val(), want)
		}
	}
	if !q.Empty() {
		t.Fatal("expected empty queue")
	}
}

func TestRemoveSpecific(t *testing.T) {
	var q Queue[string]
	a, b, c := NewElem("a"), NewElem("b"), NewElem("c")
	q.Append(a)
	q.Append(b)
	q.Append(c)
	q.Remove(b)
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
	if q.RemoveFirst().Val() != "a" || q.RemoveFirst().Val() != "c" {
		t.Fatal("unexpected order after removing middle element")
	}
}

func TestRemoveFirstEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var q Queue[int]
	q.RemoveFirst()
}

func TestDoubleAppendPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var q Queue[int]
	e := NewElem(1)
	q.Append(e)
	q.Append(e)
}

func TestSplice(t *testing.T) {
	var q1, q2 Queue[int]
	q1.Append(NewElem(1))
	q1.Append(NewElem(2))
	q2.Append(NewElem(3))
	q2.Append(NewElem(4))
	q1.Splice(&q2)
	if q1.Len() != 4 || !q2.Empty() {
		t.Fatalf("splice failed: q1.Len()=%d q2.Empty()=%v", q1.Len(), q2.Empty())
	}
	for _, want := range []int{1, 2, 3, 4} {
		if got := q1.RemoveFirst().Val(); got != want {
			t.Fatalf("got %d want %d", got, want)
		}
	}
}
