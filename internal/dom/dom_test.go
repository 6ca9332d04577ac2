package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	require.NoError(t, err)
	return doc
}

func ids(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, ID(n))
	}
	return out
}

func TestQueryAll_PrefixSelectorInDocumentOrder(t *testing.T) {
	doc := mustParse(t, `<div id="chat">
		<div id="message-1"><div id="message-2"></div></div>
		<div id="message-3"></div><span id="insert"></span>
	</div>`)

	got, err := doc.QueryAll(`[id^="message-"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"message-1", "message-2", "message-3"}, ids(got))
}

func TestQueryFirst_NeverMatchesStartNode(t *testing.T) {
	doc := mustParse(t, `<div id="message-1" class="x-wrap"><p class="x-wrap-inner"></p></div>`)
	start := doc.ByID("message-1")
	require.NotNil(t, start)

	got, err := QueryFirst(start, `[class^="x-wrap"]`)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p", got.Data)
}

func TestQuery_InvalidSelector(t *testing.T) {
	doc := mustParse(t, `<div></div>`)
	_, err := doc.Query(`[id^=`)
	assert.Error(t, err)
}

func TestClosest_IncludesSelf(t *testing.T) {
	doc := mustParse(t, `<div id="message-1"><p><b id="x">hi</b></p></div>`)
	b := doc.ByID("x")

	got, err := Closest(b, `[id^="message-"]`)
	require.NoError(t, err)
	assert.Equal(t, "message-1", ID(got))

	self, err := Closest(doc.ByID("message-1"), `[id^="message-"]`)
	require.NoError(t, err)
	assert.Equal(t, "message-1", ID(self))
}

func TestClassHelpers(t *testing.T) {
	n := NewElement("div", "class", "message consecutive  other")

	assert.True(t, HasClass(n, "consecutive"))
	RemoveClass(n, "consecutive")
	assert.False(t, HasClass(n, "consecutive"))
	assert.Equal(t, []string{"message", "other"}, Classes(n))
}

func TestSetStyleProperty_ReplacesExisting(t *testing.T) {
	n := NewElement("div", "style", "color: red; display:none")
	SetStyleProperty(n, "display", "block")

	v, _ := Attr(n, "style")
	assert.Equal(t, "color: red; display: block;", v)
}

func TestInsertAfter_MovesNodeThatWasNextSibling(t *testing.T) {
	doc := mustParse(t, `<div id="p"><i id="a"></i><i id="b"></i><i id="c"></i></div>`)
	a, b, c := doc.ByID("a"), doc.ByID("b"), doc.ByID("c")

	InsertAfter(a, c, b)

	assert.Equal(t, []string{"a", "c", "b"}, ids(ElementChildren(doc.ByID("p"))))
}

func TestReplaceWith_DescendantReplacesAncestor(t *testing.T) {
	doc := mustParse(t, `<div id="chat"><div id="wrap"><div id="inner"></div></div><i id="tail"></i></div>`)
	wrap, inner := doc.ByID("wrap"), doc.ByID("inner")

	ReplaceWith(wrap, inner)

	assert.Equal(t, []string{"inner", "tail"}, ids(ElementChildren(doc.ByID("chat"))))
	assert.Nil(t, wrap.Parent)
	assert.Nil(t, doc.ByID("wrap"))
}

func TestReplaceWith_DetachedIsNoop(t *testing.T) {
	n := NewElement("div")
	ReplaceWith(n, NewElement("span"))
	assert.Nil(t, n.Parent)
}

func TestReplaceChildren_KeepsRequestedOrder(t *testing.T) {
	doc := mustParse(t, `<div id="p"><i id="a"></i><i id="b"></i></div><i id="z"></i>`)
	p := doc.ByID("p")

	ReplaceChildren(p, doc.ByID("z"), doc.ByID("a"))

	assert.Equal(t, []string{"z", "a"}, ids(Children(p)))
	assert.Nil(t, doc.ByID("b"))
}

func TestAppend_RefusesCycle(t *testing.T) {
	doc := mustParse(t, `<div id="outer"><div id="inner"></div></div>`)
	outer, inner := doc.ByID("outer"), doc.ByID("inner")

	Append(inner, outer)

	assert.Equal(t, outer, inner.Parent)
}

func TestFragment_QueryBeforeInsert(t *testing.T) {
	frag, err := NewFragment(`<div id="message-1"><span id="insert-here"></span></div><p>tail</p>`)
	require.NoError(t, err)

	marker, err := frag.Query(`[id^="insert"]`)
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, "insert-here", ID(marker))
	assert.Len(t, frag.Nodes(), 2)
}

func TestParseFragment_NodesAreDetached(t *testing.T) {
	nodes, err := ParseFragment(`<div id="a"></div>text`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Nil(t, n.Parent)
	}
}

func TestPreviousElementSibling_SkipsText(t *testing.T) {
	doc := mustParse(t, `<div><i id="a"></i> text <i id="b"></i></div>`)
	assert.Equal(t, "a", ID(PreviousElementSibling(doc.ByID("b"))))
	assert.Nil(t, PreviousElementSibling(doc.ByID("a")))
}

func TestContains(t *testing.T) {
	doc := mustParse(t, `<div id="a"></div>`)
	a := doc.ByID("a")
	assert.True(t, doc.Contains(a))
	Detach(a)
	assert.False(t, doc.Contains(a))
}
