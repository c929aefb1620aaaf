package pairseq

// Simple is an append-only FIFO of (x, y) pairs backed by a fixed ring buffer.
// Once the capacity is reached the oldest pair is evicted per append.
type Simple struct {
	xs       []float64
	ys       []float64
	head     int
	size     int
	capacity int
}

func NewSimple(capacity int) *Simple {
	if capacity < 1 {
		capacity = 1
	}
	return &Simple{
		xs:       make([]float64, capacity),
		ys:       make([]float64, capacity),
		capacity: capacity,
	}
}

func (s *Simple) Append(x, y float64) {
	s.xs[s.head] = x
	s.ys[s.head] = y
	s.head = (s.head + 1) % s.capacity
	if s.size < s.capacity {
		s.size++
	}
}

func (s *Simple) Len() int {
	return s.size
}

func (s *Simple) Reset() {
	s.head = 0
	s.size = 0
}

// Data returns the retained pairs in insertion order.
func (s *Simple) Data() (xs, ys []float64) {
	xs = make([]float64, s.size)
	ys = make([]float64, s.size)
	start := (s.head - s.size + s.capacity) % s.capacity
	for i := 0; i < s.size; i++ {
		j := (start + i) % s.capacity
		xs[i] = s.xs[j]
		ys[i] = s.ys[j]
	}
	return xs, ys
}
