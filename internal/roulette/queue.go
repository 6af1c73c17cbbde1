package roulette

import (
	"container/list"
	"sync"
)

// Queue is an unbounded FIFO of pending redemptions.
// Duplicate ids are kept; the orchestrator only logs them.
type Queue struct {
	mu   sync.Mutex
	list *list.List
}

func NewQueue() *Queue {
	return &Queue{list: list.New()}
}

func (q *Queue) Push(event RedemptionEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.PushBack(event)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.list.Len()
}

// PopFront returns false when the queue is empty.
func (q *Queue) PopFront() (RedemptionEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := q.list.Front()
	if front == nil {
		return RedemptionEvent{}, false
	}
	return q.list.Remove(front).(RedemptionEvent), true
}

// Pending returns a copy of the queued events, head first.
func (q *Queue) Pending() []RedemptionEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]RedemptionEvent, 0, q.list.Len())
	for e := q.list.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(RedemptionEvent))
	}
	return out
}
