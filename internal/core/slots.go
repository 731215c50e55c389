package core

import (
	"errors"
	"fmt"
	"sync"

	"appstudio/internal/infra/kv"
)

// DefaultSlotCount is the board size when no explicit size is configured.
const DefaultSlotCount = 10

// SlotBoard maps a fixed number of UI slots to optional item references,
// scoped per workspace and application and persisted through the kv store.
// Slots hold references only, never denormalized copies: consumers re-resolve
// them against live data so renames and deletions show through.
type SlotBoard struct {
	mu    sync.Mutex
	store *kv.Store
	key   string
	slots []*ItemReference
}

// NewSlotBoard loads the board stored for the scope or initialises an
// all-empty board of the given size when none exists. Size zero means
// DefaultSlotCount.
func NewSlotBoard(store *kv.Store, workspaceID, applicationID string, size int) (*SlotBoard, error) {
	if store == nil {
		return nil, fmt.Errorf("slot board requires a kv store")
	}
	if workspaceID == "" || applicationID == "" {
		return nil, fmt.Errorf("slot board requires workspace and application scope")
	}
	if size <= 0 {
		size = DefaultSlotCount
	}
	board := &SlotBoard{
		store: store,
		key:   workspaceID + "/" + applicationID,
	}

	var stored []*ItemReference
	err := store.Get(board.key, &stored)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		board.slots = make([]*ItemReference, size)
	case err != nil:
		return nil, err
	default:
		board.slots = normalizeSlots(stored, size)
	}
	return board, nil
}

// normalizeSlots pads or truncates a stored board to the configured size.
func normalizeSlots(stored []*ItemReference, size int) []*ItemReference {
	out := make([]*ItemReference, size)
	for i := 0; i < size && i < len(stored); i++ {
		out[i] = cloneItemRef(stored[i])
	}
	return out
}

// Size returns the number of slots on the board.
func (b *SlotBoard) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}

// Slots returns a copy of the current board.
func (b *SlotBoard) Slots() []*ItemReference {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*ItemReference, len(b.slots))
	for i, ref := range b.slots {
		out[i] = cloneItemRef(ref)
	}
	return out
}

// Slot returns the reference at index, or nil for an empty or out-of-range slot.
func (b *SlotBoard) Slot(index int) *ItemReference {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.slots) {
		return nil
	}
	return cloneItemRef(b.slots[index])
}

// SetSlot replaces the slot content at index and persists the board.
func (b *SlotBoard) SetSlot(index int, ref ItemReference) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkIndex(index); err != nil {
		return err
	}
	r := ref
	b.slots[index] = &r
	return b.persistLocked()
}

// ClearSlot empties the slot at index and persists the board.
func (b *SlotBoard) ClearSlot(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkIndex(index); err != nil {
		return err
	}
	b.slots[index] = nil
	return b.persistLocked()
}

// SwapSlots exchanges two slot positions and persists the board.
func (b *SlotBoard) SwapSlots(i, j int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := swapAt(b.slots, i, j); err != nil {
		return err
	}
	return b.persistLocked()
}

// Activate feeds the slot's reference to the selection machine, implementing
// the "assign slot N" hotkey effect. An empty slot is a no-op and reports false.
func (b *SlotBoard) Activate(index int, selection *Selection) bool {
	b.mu.Lock()
	ref := (*ItemReference)(nil)
	if index >= 0 && index < len(b.slots) {
		ref = cloneItemRef(b.slots[index])
	}
	b.mu.Unlock()
	if ref == nil || selection == nil {
		return false
	}
	selection.SetActive(*ref)
	return true
}

func (b *SlotBoard) checkIndex(index int) error {
	if index < 0 || index >= len(b.slots) {
		return fmt.Errorf("slot index %d out of range [0,%d)", index, len(b.slots))
	}
	return nil
}

func (b *SlotBoard) persistLocked() error {
	return b.store.Set(b.key, b.slots)
}
