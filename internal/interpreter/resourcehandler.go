package interpreter

// ResourceHandler stages one SubRuleSet's reads and writes against a
// shared DataStore, implementing the copy-on-read contract of spec.md
// §5: "all sub-rule-sets observe the same pre-tick snapshot... writes
// are visible only after the tick completes." Grounded on
// original_source/src/backend/cq/cqresourcehandler.h's
// buffer/bufferMap/relation triple (see value.go's package doc for the
// translation note).
type ResourceHandler struct {
	store *DataStore
	local map[string]RuntimeValue
	read  map[string]bool // copy-on-read guard: name has been staged from canonical
}

// NewResourceHandler builds a handler over store, with an empty local
// stage.
func NewResourceHandler(store *DataStore) *ResourceHandler {
	return &ResourceHandler{store: store, local: map[string]RuntimeValue{}, read: map[string]bool{}}
}

// Read materializes name's local copy on first touch (copy-on-read),
// then returns the (possibly already locally mutated) value.
func (h *ResourceHandler) Read(name string) (RuntimeValue, bool) {
	if h.read[name] {
		return h.local[name], true
	}
	slot, ok := h.store.canonicalSlot(name)
	if !ok {
		return nil, false
	}
	v := deepCopy(slot[name])
	h.local[name] = v
	h.read[name] = true
	return v, true
}

// Write stages value into name's local slot, replacing whatever was
// staged there, and marks name as touched so WriteBack can merge it.
func (h *ResourceHandler) Write(name string, value RuntimeValue) {
	h.local[name] = value
	h.read[name] = true
}

// WriteBack merges exactly the named fields from local staging into the
// canonical DataStore — the set is supplied by the caller (the
// translator's precomputed per-atom modified-variable set for a
// sub-rule-set, or every declared field name for preprocess), per
// SPEC_FULL.md §C.1.
func (h *ResourceHandler) WriteBack(names []string) {
	for _, name := range names {
		if !h.read[name] {
			continue
		}
		slot, ok := h.store.canonicalSlot(name)
		if !ok {
			continue
		}
		slot[name] = deepCopy(h.local[name])
	}
}

// Reset clears staged reads/writes ahead of the next tick.
func (h *ResourceHandler) Reset() {
	h.local = map[string]RuntimeValue{}
	h.read = map[string]bool{}
}
