// Package pairseq provides bounded-memory history containers for (x, y)
// scalar pairs observed one train at a time.
package pairseq

// Sequence is the common surface of the two history containers. Data returns
// parallel x/y slices; both are empty when no pairs have been recorded.
type Sequence interface {
	Append(x, y float64)
	Reset()
	Data() (xs, ys []float64)
}
