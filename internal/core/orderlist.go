package core

import "fmt"

// Order arrays are rewritten wholesale inside a single transaction: every
// helper computes the complete new slice before anything is written, so a
// failed operation leaves no partial state.

// moveIndex performs a stable move of the element at from to position to.
// It is a remove-then-insert, not a swap.
func moveIndex[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) {
		return nil, fmt.Errorf("move: index %d out of range [0,%d)", from, len(items))
	}
	if to < 0 || to >= len(items) {
		return nil, fmt.Errorf("move: index %d out of range [0,%d)", to, len(items))
	}
	out := make([]T, 0, len(items))
	out = append(out, items...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out, nil
}

// insertAt inserts id at index, clamping the index into [0, len].
func insertAt(ids []string, id string, index int) []string {
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	out = append(out, ids[index:]...)
	return out
}

// removeID removes the first occurrence of id and reports whether it was present.
func removeID(ids []string, id string) ([]string, bool) {
	for i, existing := range ids {
		if existing == id {
			out := make([]string, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			out = append(out, ids[i+1:]...)
			return out, true
		}
	}
	return ids, false
}

// swapAt exchanges two positions in place.
func swapAt[T any](items []T, i, j int) error {
	if i < 0 || i >= len(items) {
		return fmt.Errorf("swap: index %d out of range [0,%d)", i, len(items))
	}
	if j < 0 || j >= len(items) {
		return fmt.Errorf("swap: index %d out of range [0,%d)", j, len(items))
	}
	items[i], items[j] = items[j], items[i]
	return nil
}
