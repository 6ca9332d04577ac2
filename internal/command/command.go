package command

import (
	"errors"
	"fmt"
)

// Kind names a host operation.
type Kind string

// Operation kinds. The names match the host helper calls.
const (
	KindAppend         Kind = "append"
	KindAppendTo       Kind = "append_to"
	KindReplace        Kind = "replace"
	KindRemove         Kind = "remove"
	KindPromote        Kind = "promote"
	KindUpdate         Kind = "update"
	KindEmpty          Kind = "empty"
	KindAppendOutside  Kind = "append_outside"
	KindPrependOutside Kind = "prepend_outside"
	KindAppendPrevious Kind = "append_previous"
	KindStyle          Kind = "style"
	KindContextMenu    Kind = "context_menu"
	KindScroll         Kind = "scroll"
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindAppend,
	KindAppendTo,
	KindReplace,
	KindRemove,
	KindPromote,
	KindUpdate,
	KindEmpty,
	KindAppendOutside,
	KindPrependOutside,
	KindAppendPrevious,
	KindStyle,
	KindContextMenu,
	KindScroll,
}

// Errors returned by Validate.
var (
	ErrUnknownKind  = errors.New("unknown command kind")
	ErrMissingField = errors.New("missing required field")
)

// Command is one host operation.
//
// Target is a selector for query-based kinds (append_to, replace, remove,
// update, empty, style, context_menu) and an element id for the id-based
// kinds (promote, append_outside, prepend_outside, append_previous).
type Command struct {
	Kind        Kind   `json:"kind" yaml:"kind"`
	Target      string `json:"target,omitempty" yaml:"target,omitempty"`
	Content     string `json:"content,omitempty" yaml:"content,omitempty"`
	Consecutive string `json:"consecutive,omitempty" yaml:"consecutive,omitempty"`
	Property    string `json:"property,omitempty" yaml:"property,omitempty"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// TargetIsID reports whether the kind addresses its target by element id
// rather than by selector.
func (k Kind) TargetIsID() bool {
	switch k {
	case KindPromote, KindAppendOutside, KindPrependOutside, KindAppendPrevious:
		return true
	}
	return false
}

// Mutates reports whether the kind edits the tree.
func (k Kind) Mutates() bool {
	return k != KindContextMenu && k != KindScroll
}

// Validate checks that the kind is known and its required fields are set.
func (c Command) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}

	need := func(field, val string) error {
		if val == "" {
			return fmt.Errorf("%s: %w: %s", c.Kind, ErrMissingField, field)
		}
		return nil
	}

	switch c.Kind {
	case KindAppend:
		return need("content", c.Content)
	case KindPromote:
		if err := need("target", c.Target); err != nil {
			return err
		}
		if err := need("content", c.Content); err != nil {
			return err
		}
		return need("consecutive", c.Consecutive)
	case KindStyle:
		if err := need("target", c.Target); err != nil {
			return err
		}
		return need("property", c.Property)
	case KindScroll:
		return nil
	default:
		return need("target", c.Target)
	}
}

// String returns a short description for logs.
func (c Command) String() string {
	if c.Target == "" {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s(%s)", c.Kind, c.Target)
}

// Record is a journaled command together with its outcome.
type Record struct {
	ID      string  `json:"id"`
	Session string  `json:"session"`
	Seq     int64   `json:"seq"`
	Command Command `json:"command"`
	Applied bool    `json:"applied"`
	Error   string  `json:"error,omitempty"`
}

// NewRecord builds a record and computes its id.
func NewRecord(session string, seq int64, cmd Command) (Record, error) {
	id, err := ID(session, seq, cmd)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:      id,
		Session: session,
		Seq:     seq,
		Command: cmd,
	}, nil
}
