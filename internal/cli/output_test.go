package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutput_JSONEmit(t *testing.T) {
	buf := &bytes.Buffer{}
	out := &Output{Format: "json", Writer: buf}

	err := out.Emit(map[string]string{"chat": `<div id="chat"></div>`}, func(io.Writer) {
		t.Fatal("text renderer must not run in json format")
	})
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	// Markup is written without HTML escaping.
	assert.Contains(t, buf.String(), `<div id=\"chat\"></div>`)
}

func TestOutput_JSONFail(t *testing.T) {
	buf := &bytes.Buffer{}
	out := &Output{Format: "json", Writer: buf}

	err := out.Fail(CodeInvariant, "2 violation(s)", nil, nil)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvariant, resp.Error.Code)
	assert.Equal(t, "2 violation(s)", resp.Error.Message)
}

func TestOutput_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	out := &Output{Format: "text", Writer: buf}

	require.NoError(t, out.Emit(nil, func(w io.Writer) { fmt.Fprintln(w, "all good") }))
	assert.Equal(t, "all good\n", buf.String())

	buf.Reset()
	err := out.Fail(CodeCommandFailed, "1 command(s) failed", nil, func(w io.Writer) { fmt.Fprintln(w, "bad") })
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "bad\n", buf.String())
}

func TestOutput_Verbosef(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	out := &Output{Format: "json", Writer: buf, ErrWriter: errBuf}
	out.Verbosef("hidden")
	assert.Empty(t, errBuf.String())

	out.Verbose = true
	out.Verbosef("replayed %d", 3)
	assert.Equal(t, "replayed 3\n", errBuf.String())
	assert.Empty(t, buf.String())
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to write output", inner)

	assert.Equal(t, "failed to write output: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("apply: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, "boom", NewExitError(ExitFailure, "boom").Error())
}
