package planner

// entry is one open-set record. Stale entries (node closed, or pushed with a
// cost the node has since improved on) are skipped when popped.
type entry struct {
	n *node
	g float64
	f float64
}

type minHeap []entry

func (h *minHeap) push(e entry) {
	*h = append(*h, e)
	// Sift up
	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !(*h)[i].less((*h)[parent]) {
			break
		}
		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func (h *minHeap) pop() entry {
	old := *h
	n := len(old)
	e := old[0]
	old[0] = old[n-1]
	old[n-1] = entry{}
	*h = old[:n-1]

	// Sift down
	i := 0
	for {
		left := 2*i + 1
		if left >= len(*h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(*h) && (*h)[right].less((*h)[left]) {
			smallest = right
		}
		if !(*h)[smallest].less((*h)[i]) {
			break
		}
		(*h)[smallest], (*h)[i] = (*h)[i], (*h)[smallest]
		i = smallest
	}
	return e
}

// less orders by f, then prefers the deeper node (higher g) on ties.
func (e entry) less(o entry) bool {
	if e.f != o.f {
		return e.f < o.f
	}
	return e.g > o.g
}
