package workflow

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/YoshitsuguKoike/donothing/internal/domain/model/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_PrintAndWarnArePaced(t *testing.T) {
	var out, errOut bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out, &errOut, time.Second, 500*time.Millisecond)
	var pauses []time.Duration
	c.sleep = func(d time.Duration) { pauses = append(pauses, d) }

	c.Print("hello")
	c.Warn("careful")

	assert.Equal(t, "\nhello\n", out.String())
	assert.Equal(t, "careful\n", errOut.String())
	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond}, pauses)
}

func TestConsole_Input(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain line", input: "value\n", want: "value"},
		{name: "windows line ending", input: "value\r\n", want: "value"},
		{name: "last line without newline", input: "value", want: "value"},
		{name: "empty line", input: "\n", want: ""},
		{name: "decomposed input is normalized", input: "e\u0301\n", want: "\u00e9"},
		{name: "closed input", input: "", wantErr: ErrInputClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(strings.NewReader(tt.input), &out, &bytes.Buffer{}, 0, 0)

			got, err := c.Input("Question", "hint")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "\nQuestion\nhint : ", out.String())
		})
	}
}

func TestConsole_WaitForDone(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("n\n\nmaybe\nY\n"), &out, &bytes.Buffer{}, 0, 0)

	require.NoError(t, c.WaitForDone("Do the thing"))
	assert.Equal(t, 4, strings.Count(out.String(), "Step complete? y / [n] : "))
	assert.True(t, strings.HasPrefix(out.String(), "\nDo the thing\n"))
}

func TestConsole_WaitForDoneInputClosed(t *testing.T) {
	c := NewConsole(strings.NewReader("n\n"), &bytes.Buffer{}, &bytes.Buffer{}, 0, 0)
	assert.ErrorIs(t, c.WaitForDone("Do the thing"), ErrInputClosed)
}

func TestOneOf(t *testing.T) {
	parse := OneOf("A", "B", "C")

	v, ok := parse("B")
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	_, ok = parse("D")
	assert.False(t, ok)
	_, ok = parse("a")
	assert.False(t, ok)
}

func TestParseInt(t *testing.T) {
	v, ok := ParseInt(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	_, ok = ParseInt("4.2")
	assert.False(t, ok)
}

func choiceDefinition(current any) *Static {
	field := progress.String("choice", "").OrNull()
	if current != nil {
		field = progress.String("choice", current.(string))
	}
	return &Static{
		WorkflowName: "Choice",
		Fields:       progress.MustSchema(field),
		Sequence: []Step{{Name: "choose", Run: func(e *Engine) error {
			return e.SetValueFromInput("choice", "Input a string", "Either A or B or C", OneOf("A", "B", "C"))
		}}},
	}
}

func TestSetValueFromInput(t *testing.T) {
	tests := []struct {
		name      string
		current   any
		input     string
		want      any
		wantHint  bool
		wantError error
	}{
		{name: "rejects until accepted", input: "D\n\nB\n", want: "B"},
		{name: "empty input keeps current value", current: "A", input: "\n", want: "A", wantHint: true},
		{name: "new value replaces current", current: "A", input: "C\n", want: "C", wantHint: true},
		{name: "input closed", input: "D\n", wantError: ErrInputClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.input)
			e, err := New(choiceDefinition(tt.current), h.opts)
			require.NoError(t, err)
			defer e.Close()

			err = e.Run(context.Background())
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Equal(t, -1, e.LatestCompleteStep())
				return
			}
			require.NoError(t, err)

			v, _ := e.Value("choice")
			assert.Equal(t, tt.want, v)
			doc := h.readDoc(t, e.FilePath())
			assert.JSONEq(t, `0`, string(doc["latest_complete_step"]))

			hint := "OR input nothing for `A`"
			if tt.wantHint {
				assert.Contains(t, h.out.String(), hint)
			} else {
				assert.NotContains(t, h.out.String(), hint)
			}
		})
	}
}

func TestSetValueFromInput_UnknownField(t *testing.T) {
	h := newHarness(t, "x\n")
	e, err := New(abDefinition(), h.opts)
	require.NoError(t, err)
	defer e.Close()

	assert.ErrorContains(t, e.SetValueFromInput("missing", "m", "h", nil), `"missing"`)
}

func TestSetValueFromInput_NilParseKeepsRawInput(t *testing.T) {
	h := newHarness(t, "free text\n")
	e, err := New(abDefinition(), h.opts)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.SetValueFromInput("b", "Describe it", "anything", nil))
	assert.Equal(t, "free text", e.StringValue("b"))
}
