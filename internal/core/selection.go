package core

import "sync"

// Panel identifies one of the toggleable side panels.
type Panel string

// Panels. Collections and sysvars compete for the same screen edge, as do
// instructions and applications: opening one of a pair closes the other.
const (
	PanelCollections  Panel = "collections"
	PanelInstructions Panel = "instructions"
	PanelApplications Panel = "applications"
	PanelSysvars      Panel = "sysvars"
)

var competingPanels = map[Panel]Panel{
	PanelCollections:  PanelSysvars,
	PanelSysvars:      PanelCollections,
	PanelInstructions: PanelApplications,
	PanelApplications: PanelInstructions,
}

// Selection tracks the mutually exclusive active ("picked up for placement")
// and selected ("being inspected") references plus the open panel flags.
// It is safe for concurrent use.
type Selection struct {
	mu       sync.Mutex
	active   *ItemReference
	selected *ItemReference
	panels   map[Panel]bool
}

// NewSelection starts idle with every panel closed.
func NewSelection() *Selection {
	return &Selection{panels: make(map[Panel]bool)}
}

// SetActive picks up a reference for placement, dropping any selection.
func (s *Selection) SetActive(ref ItemReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := ref
	s.active = &r
	s.selected = nil
}

// SetSelected inspects a reference, dropping any active pick-up.
func (s *Selection) SetSelected(ref ItemReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := ref
	s.selected = &r
	s.active = nil
}

// Active returns the current active reference, or nil.
func (s *Selection) Active() *ItemReference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItemRef(s.active)
}

// Selected returns the current selected reference, or nil.
func (s *Selection) Selected() *ItemReference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItemRef(s.selected)
}

// UseActive consumes the active reference: it returns the reference and
// clears it, so a drop action claims it exactly once.
func (s *Selection) UseActive() (ItemReference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ItemReference{}, false
	}
	ref := *s.active
	s.active = nil
	return ref, true
}

// TogglePanel flips a panel open or closed. Opening a panel closes its
// competing pair.
func (s *Selection) TogglePanel(panel Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := !s.panels[panel]
	s.panels[panel] = open
	if open {
		if competitor, ok := competingPanels[panel]; ok {
			s.panels[competitor] = false
		}
	}
}

// PanelOpen reports whether the panel is open.
func (s *Selection) PanelOpen(panel Panel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panels[panel]
}

// CloseTopmost closes the topmost open element in priority order: the active
// reference, else the selected reference, else every open panel. It reports
// whether anything was closed.
func (s *Selection) CloseTopmost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active = nil
		return true
	}
	if s.selected != nil {
		s.selected = nil
		return true
	}
	closed := false
	for panel, open := range s.panels {
		if open {
			s.panels[panel] = false
			closed = true
		}
	}
	return closed
}

func cloneItemRef(ref *ItemReference) *ItemReference {
	if ref == nil {
		return nil
	}
	r := *ref
	return &r
}
