package transcript

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/roach88/chatdom/internal/dom"
)

// Transcript applies host edits to a chat document.
//
// It caches the anchor node between calls. The cache is trusted only while
// the node is still attached to the document and still carries the anchor
// id; otherwise the anchor is looked up again.
type Transcript struct {
	doc    *dom.Document
	anchor *html.Node
	chatID string
	strict bool
	logger *slog.Logger

	// anchorRemoved is set when a caller removed the anchor itself and no
	// anchor has existed since.
	anchorRemoved bool
}

// Option configures a Transcript.
type Option func(*Transcript)

// WithStrict makes layout ambiguity and a missing placeholder hard errors.
// Tests run strict; production leaves such groups untouched.
func WithStrict(strict bool) Option {
	return func(t *Transcript) {
		t.strict = strict
	}
}

// WithChatID sets the id of the container that Append targets.
func WithChatID(id string) Option {
	return func(t *Transcript) {
		if id != "" {
			t.chatID = id
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Transcript) {
		if l != nil {
			t.logger = l
		}
	}
}

// New wraps doc.
func New(doc *dom.Document, opts ...Option) *Transcript {
	t := &Transcript{
		doc:    doc,
		chatID: DefaultChatID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromHTML parses markup and wraps the resulting document.
func NewFromHTML(markup string, opts ...Option) (*Transcript, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("new transcript: %w", err)
	}
	return New(doc, opts...), nil
}

// Document returns the live document.
func (t *Transcript) Document() *dom.Document {
	return t.doc
}

// ChatID returns the id of the message container.
func (t *Transcript) ChatID() string {
	return t.chatID
}

// Strict reports whether strict mode is on.
func (t *Transcript) Strict() bool {
	return t.strict
}

// Render serializes the whole document.
func (t *Transcript) Render() (string, error) {
	return t.doc.Render()
}

// RenderChat serializes the message container, or the whole document when
// the container is missing.
func (t *Transcript) RenderChat() (string, error) {
	if chat := t.doc.ByID(t.chatID); chat != nil {
		return dom.Render(chat)
	}
	return t.doc.Render()
}

// Messages returns all message elements in document order.
func (t *Transcript) Messages() []*html.Node {
	return mustQueryAll(t.doc.Root(), selMessage)
}

// MessageIDs returns the ids of all message elements in document order.
func (t *Transcript) MessageIDs() []string {
	msgs := t.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = dom.ID(m)
	}
	return out
}

// Anchor returns the current anchor node, or nil.
func (t *Transcript) Anchor() *html.Node {
	return t.anchorNode()
}

func (t *Transcript) anchorNode() *html.Node {
	if t.anchor != nil && dom.ID(t.anchor) == AnchorID && t.doc.Contains(t.anchor) {
		return t.anchor
	}
	t.anchor = t.doc.ByID(AnchorID)
	return t.anchor
}

// mustQueryAll runs one of the package's constant selectors.
func mustQueryAll(n *html.Node, sel string) []*html.Node {
	out, err := dom.QueryAll(n, sel)
	if err != nil {
		panic(fmt.Sprintf("transcript: selector %q: %v", sel, err))
	}
	return out
}

func mustQueryFirst(n *html.Node, sel string) *html.Node {
	out, err := dom.QueryFirst(n, sel)
	if err != nil {
		panic(fmt.Sprintf("transcript: selector %q: %v", sel, err))
	}
	return out
}
