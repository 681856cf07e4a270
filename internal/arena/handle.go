package arena

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle identifies a value stored in an Arena. It is comparable and safe to
// use as a map key.
type Handle struct {
	index      uint32
	generation uint32
}

// Index returns the slot index of the handle.
func (h Handle) Index() int {
	return int(h.index)
}

// Generation returns the slot generation captured when the handle was issued.
func (h Handle) Generation() uint32 {
	return h.generation
}

// IsZero reports whether h is the zero handle, which never resolves.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

// String renders the handle as "<index>v<generation>", e.g. "3v1".
func (h Handle) String() string {
	return fmt.Sprintf("%dv%d", h.index, h.generation)
}

// ParseHandle parses the canonical string produced by Handle.String.
func ParseHandle(s string) (Handle, error) {
	idx, gen, ok := strings.Cut(s, "v")
	if !ok {
		return Handle{}, fmt.Errorf("invalid handle %q: missing generation separator", s)
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid handle %q: bad index: %w", s, err)
	}
	generation, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid handle %q: bad generation: %w", s, err)
	}
	if generation == 0 {
		return Handle{}, fmt.Errorf("invalid handle %q: generation must be positive", s)
	}
	return Handle{index: uint32(index), generation: uint32(generation)}, nil
}
