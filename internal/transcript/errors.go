package transcript

import "errors"

var (
	// ErrNoMessageAncestor means an event target has no enclosing message.
	// The tree structure is broken when this happens.
	ErrNoMessageAncestor = errors.New("no enclosing message")

	// ErrAmbiguousLayout means a group shows neither the wrap nor the merged
	// marker. Only returned in strict mode.
	ErrAmbiguousLayout = errors.New("group layout is neither wrap nor merged")

	// ErrNoPlaceholder means promotion content carries no placeholder.
	ErrNoPlaceholder = errors.New("promotion content has no placeholder")
)
