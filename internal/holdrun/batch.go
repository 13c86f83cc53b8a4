package holdrun

import "iter"

// Batches returns a lazy sequence of fixed-size windows over mailboxes.
// For N inputs and window size W it yields ceil(N/W) batches; every batch
// has W items except possibly the last. Batches share backing storage with
// the input slice and carry a 1-based Index. Re-ranging the sequence with
// the same arguments reproduces identical batches.
//
// size must be >= 1; Batches panics otherwise because a non-positive
// window is a programming error, not a runtime condition.
func Batches(mailboxes []*Mailbox, size int) iter.Seq[Batch] {
	if size < 1 {
		panic("holdrun: batch size must be >= 1")
	}

	return func(yield func(Batch) bool) {
		for start, index := 0, 1; start < len(mailboxes); start, index = start+size, index+1 {
			end := min(start+size, len(mailboxes))
			if !yield(Batch{Index: index, Mailboxes: mailboxes[start:end]}) {
				return
			}
		}
	}
}

// BatchCount returns the number of batches Batches will yield for n items
// and the given window size.
func BatchCount(n, size int) int {
	if n <= 0 {
		return 0
	}

	return (n + size - 1) / size
}
