package display

import (
	"container/list"
	"time"

	"github.com/jmylchreest/traynote/internal/model"
)

// queuedRequest is a notification waiting for a free popup slot.
// No GTK objects exist until it is displayed.
type queuedRequest struct {
	req      *model.Request
	urgency  int
	queuedAt time.Time
}

// pendingQueue orders waiting notifications by urgency, then arrival.
type pendingQueue struct {
	items *list.List
	index map[model.ID]*list.Element
	now   func() time.Time
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{
		items: list.New(),
		index: make(map[model.ID]*list.Element),
		now:   time.Now,
	}
}

// push adds req, replacing a queued request with the same id.
func (q *pendingQueue) push(req *model.Request) {
	queuedAt := q.now()
	if elem, ok := q.index[req.ID]; ok {
		queuedAt = elem.Value.(*queuedRequest).queuedAt
		q.items.Remove(elem)
		delete(q.index, req.ID)
	}

	queued := &queuedRequest{req: req, urgency: req.Urgency(), queuedAt: queuedAt}

	var insertBefore *list.Element
	for e := q.items.Front(); e != nil; e = e.Next() {
		existing := e.Value.(*queuedRequest)
		if queued.urgency > existing.urgency ||
			(queued.urgency == existing.urgency && queued.queuedAt.Before(existing.queuedAt)) {
			insertBefore = e
			break
		}
	}

	var elem *list.Element
	if insertBefore != nil {
		elem = q.items.InsertBefore(queued, insertBefore)
	} else {
		elem = q.items.PushBack(queued)
	}
	q.index[req.ID] = elem
}

// pop removes and returns the most urgent request, or nil.
func (q *pendingQueue) pop() *model.Request {
	elem := q.items.Front()
	if elem == nil {
		return nil
	}
	queued := q.items.Remove(elem).(*queuedRequest)
	delete(q.index, queued.req.ID)
	return queued.req
}

// remove drops id from the queue and reports whether it was queued.
func (q *pendingQueue) remove(id model.ID) bool {
	elem, ok := q.index[id]
	if !ok {
		return false
	}
	q.items.Remove(elem)
	delete(q.index, id)
	return true
}

// drain empties the queue and returns its ids in order.
func (q *pendingQueue) drain() []model.ID {
	ids := make([]model.ID, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(*queuedRequest).req.ID)
	}
	q.items.Init()
	q.index = make(map[model.ID]*list.Element)
	return ids
}

func (q *pendingQueue) len() int {
	return q.items.Len()
}
