package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{"append", Command{Kind: KindAppend, Content: "<div></div>"}, nil},
		{"append without content", Command{Kind: KindAppend}, ErrMissingField},
		{"remove", Command{Kind: KindRemove, Target: "#message-1"}, nil},
		{"remove without target", Command{Kind: KindRemove}, ErrMissingField},
		{"promote", Command{Kind: KindPromote, Target: "message-1", Content: "<div></div>", Consecutive: "<div></div>"}, nil},
		{"promote without consecutive", Command{Kind: KindPromote, Target: "message-1", Content: "<div></div>"}, ErrMissingField},
		{"style without property", Command{Kind: KindStyle, Target: "#chat"}, ErrMissingField},
		{"replace with empty content", Command{Kind: KindReplace, Target: "#x"}, nil},
		{"scroll", Command{Kind: KindScroll}, nil},
		{"unknown", Command{Kind: "explode"}, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestKindTargetIsID(t *testing.T) {
	assert.True(t, KindPromote.TargetIsID())
	assert.True(t, KindAppendPrevious.TargetIsID())
	assert.False(t, KindRemove.TargetIsID())
	assert.False(t, KindStyle.TargetIsID())
}

func TestCommandYAML(t *testing.T) {
	src := `
kind: promote
target: message-1
content: <div id="message-1"><span id="insert-x"></span></div>
consecutive: <div id="message-2" class="consecutive"></div>
`
	var cmd Command
	require.NoError(t, yaml.Unmarshal([]byte(src), &cmd))
	assert.Equal(t, KindPromote, cmd.Kind)
	assert.Equal(t, "message-1", cmd.Target)
	assert.NoError(t, cmd.Validate())
}

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    Object
		expected string
	}{
		{"empty", Object{}, `{}`},
		{"sorted keys", Object{"zebra": 1, "alpha": 2}, `{"alpha":2,"zebra":1}`},
		{"nested", Object{"b": Object{"y": true, "x": false}, "a": "s"}, `{"a":"s","b":{"x":false,"y":true}}`},
		{"no html escape", Object{"c": `<div id="a">&</div>`}, `{"c":"<div id=\"a\">&</div>"}`},
		{"control chars", Object{"c": "a\nb\x01"}, `{"c":"a\nb\u0001"}`},
		{"line separator kept", Object{"c": "a\u2028b"}, "{\"c\":\"a\u2028b\"}"},
		{"int64", Object{"n": int64(-7)}, `{"n":-7}`},
		{"array", Object{"l": []any{"b", Object{"k": 1}, false}}, `{"l":["b",{"k":1},false]}`},
		{"string slice", Object{"ids": []string{"message-2", "message-1"}}, `{"ids":["message-2","message-1"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(Object{"f": 1.5})
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = MarshalCanonical(Object{"n": nil})
	assert.ErrorContains(t, err, "null is forbidden")
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "é" as e + combining acute and as the precomposed rune.
	decomposed, err := MarshalCanonical(Object{"c": "e\u0301"})
	require.NoError(t, err)
	composed, err := MarshalCanonical(Object{"c": "\u00e9"})
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestID(t *testing.T) {
	cmd := Command{Kind: KindRemove, Target: "#message-1"}

	a, err := ID("session-a", 1, cmd)
	require.NoError(t, err)
	again, err := ID("session-a", 1, cmd)
	require.NoError(t, err)
	assert.Equal(t, a, again)
	assert.Len(t, a, 64)

	otherSeq, err := ID("session-a", 2, cmd)
	require.NoError(t, err)
	assert.NotEqual(t, a, otherSeq)

	otherSession, err := ID("session-b", 1, cmd)
	require.NoError(t, err)
	assert.NotEqual(t, a, otherSession)

	otherTarget, err := ID("session-a", 1, Command{Kind: KindRemove, Target: "#message-2"})
	require.NoError(t, err)
	assert.NotEqual(t, a, otherTarget)
}

func TestNewRecord(t *testing.T) {
	cmd := Command{Kind: KindScroll}
	rec, err := NewRecord("s", 3, cmd)
	require.NoError(t, err)

	id, err := ID("s", 3, cmd)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, int64(3), rec.Seq)
	assert.False(t, rec.Applied)
}
