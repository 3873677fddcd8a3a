package vchain

// Block is an ordered sequence of entries,
// produced atomically by the elected leader of one slot.
//
// There is no parent-hash chaining here:
// each node keeps an append-only local log of accepted blocks,
// which is a known simplification of this design.
type Block struct {
	Entries []Entry
}
