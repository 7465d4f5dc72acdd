// Package measurement turns cumulative byte counters into periodic
// throughput samples.
package measurement

// ByteCounter is a source of a cumulative received-bytes count. The count
// never decreases during a run.
type ByteCounter interface {
	TotalRx() uint64
}

// ByteCounterFunc lets a function act as a ByteCounter.
type ByteCounterFunc func() uint64

// TotalRx calls f().
func (f ByteCounterFunc) TotalRx() uint64 {
	return f()
}
