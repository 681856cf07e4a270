// Package arena provides a generational arena: a dense, slot-based store whose
// entries are addressed by stable, generation-checked handles.
//
// # Why Arena Exists
//
// Joints and links reference each other (a link names its two joints, a joint
// lists the links attached to it, constraints name both). Plain slice indexes
// would silently alias a different entity once a slot is reused, and pointers
// would make the graph impossible to copy or serialize by identity.
//
// A Handle pairs a slot index with the generation the slot had when the value
// was inserted. Removing a value bumps the slot's generation, so every handle
// that outlived the removal fails its lookup instead of returning the new
// occupant:
//
//	h := a.Insert("first")
//	a.Remove(h)
//	h2 := a.Insert("second") // reuses the slot, generation+1
//	a.Get(h)                 // (nil, false)
//	a.Get(h2)                // ("second", true)
//
// # Characteristics
//
//   - **Dense:** values live in one slice; lookups are O(1).
//   - **Free list:** removed slots are reused LIFO before the slice grows.
//   - **Zero handle:** generations start at 1, so Handle{} never resolves.
//   - **Not thread-safe:** callers serialize access (the solver is single-threaded).
package arena
