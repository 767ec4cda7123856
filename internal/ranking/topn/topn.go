// Package topn selects the n best scored items. Both rankers use it, so the
// tie-break rules live in one place: higher score first, then the caller's
// preference, then the earlier input position.
package topn

import "container/heap"

type Item struct {
	ID    string
	Score float64
}

// Prefer reports whether the item at input position i should rank ahead of
// the item at position j when both have the same score. It must be a strict
// weak ordering. A nil Prefer leaves equal scores in input order.
type Prefer func(i, j int) bool

// Select returns up to n items in rank order. n larger than len(items) is
// capped; n <= 0 selects nothing. The result is the same as repeatedly taking
// the best remaining item, but costs O(len(items) log n).
func Select(items []Item, n int, prefer Prefer) []Item {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return []Item{}
	}
	h := &worstFirst{items: items, prefer: prefer, idx: make([]int, 0, n+1)}
	for i := range items {
		heap.Push(h, i)
		if h.Len() > n {
			heap.Pop(h)
		}
	}
	result := make([]Item, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = items[heap.Pop(h).(int)]
	}
	return result
}

// ahead reports whether position i outranks position j.
func ahead(items []Item, prefer Prefer, i, j int) bool {
	if items[i].Score != items[j].Score {
		return items[i].Score > items[j].Score
	}
	if prefer != nil {
		if prefer(i, j) {
			return true
		}
		if prefer(j, i) {
			return false
		}
	}
	return i < j
}

// worstFirst is a heap of input positions whose root is the lowest ranked
// item kept so far.
type worstFirst struct {
	items  []Item
	prefer Prefer
	idx    []int
}

func (h *worstFirst) Len() int { return len(h.idx) }

func (h *worstFirst) Less(a, b int) bool {
	return ahead(h.items, h.prefer, h.idx[b], h.idx[a])
}

func (h *worstFirst) Swap(a, b int) { h.idx[a], h.idx[b] = h.idx[b], h.idx[a] }

func (h *worstFirst) Push(x any) {
	h.idx = append(h.idx, x.(int))
}

func (h *worstFirst) Pop() any {
	old := h.idx
	n := len(old)
	item := old[n-1]
	h.idx = old[:n-1]
	return item
}
