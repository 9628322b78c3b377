package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

func intPtr(v int) *int { return &v }

func sampleRows() []core.Row {
	return []core.Row{
		{Taxonomy: "ssyk2012", Level: core.Level1, Code: "1", Label: "Managers", Year: 2020, NChildren: intPtr(2), AgeGroup: "30-34", Employment: 130, EmploymentTotal: 170},
		{Taxonomy: "ssyk2012", Level: core.Level4, Code: "1211", Label: "Finance managers", Year: 2020, AgeGroup: "30-34", Employment: 120.5, EmploymentTotal: 160},
	}
}

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{in: "", want: ModeAuto},
		{in: "auto", want: ModeAuto},
		{in: "TEXT", want: ModeText},
		{in: " markdown ", want: ModeMarkdown},
		{in: "json", want: ModeJSON},
		{in: "csv", want: ModeCSV},
		{in: "xml", want: ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{name: "auto on terminal", mode: ModeAuto, isTTY: true, want: ModeText},
		{name: "auto piped", mode: ModeAuto, isTTY: false, want: ModeMarkdown},
		{name: "empty piped", mode: "", isTTY: false, want: ModeMarkdown},
		{name: "explicit json on terminal", mode: ModeJSON, isTTY: true, want: ModeJSON},
		{name: "explicit text piped", mode: ModeText, isTTY: false, want: ModeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRows(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, true)
		require.NoError(t, r.Rows(sampleRows()))
		s := out.String()
		assert.Contains(t, s, "Finance managers")
		assert.Contains(t, s, "employment_total")
		assert.Contains(t, s, "120.5")
		assert.Contains(t, s, "(2 rows)")
		assert.Contains(t, s, "┌", "light box style")
	})

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeAuto, false)
		require.NoError(t, r.Rows(sampleRows()))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "| taxonomy"))
		assert.Contains(t, lines[1], "---")
		assert.Contains(t, lines[3], "| 1211 |")
	})

	t.Run("csv", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeCSV, false)
		require.NoError(t, r.Rows(sampleRows()))
		assert.Equal(t,
			"taxonomy,level,code,label,year,n_children,age,employment,employment_total\n"+
				"ssyk2012,1,1,Managers,2020,2,30-34,130,170\n"+
				"ssyk2012,4,1211,Finance managers,2020,,30-34,120.5,160\n",
			out.String())
	})

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, true)
		require.NoError(t, r.Rows(sampleRows()))

		var got []RowJSON
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "1211", got[1].Code)
		assert.Nil(t, got[1].NChildren)
		require.NotNil(t, got[0].NChildren)
		assert.Equal(t, 2, *got[0].NChildren)
		assert.Contains(t, out.String(), `"n_children": null`)
	})
}

func TestTable_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.Table([]string{"name", "path"}, [][]string{{"a", "/x"}, {"b"}}))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []map[string]string{{"name": "a", "path": "/x"}, {"name": "b"}}, got)
}

func TestHeaderAndKeyValue(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)
	r.Header(2, "Run")
	r.KeyValue("Rows", "10")
	r.Warning("careful")
	r.Success("done")
	assert.Equal(t, "## Run\n\n- **Rows:** 10\n", out.String())
	assert.Equal(t, "Warning: careful\ndone\n", errOut.String())

	r, out, _ = newTestRenderer(ModeText, true)
	r.Header(1, "Run")
	r.KeyValue("Rows", "10")
	assert.Equal(t, "Run\n===\n  Rows:                10\n", out.String())
}

func TestWithMode(t *testing.T) {
	r, _, _ := newTestRenderer(ModeText, true)
	j := r.WithMode(ModeJSON)
	assert.Equal(t, ModeJSON, j.EffectiveMode())
	assert.Equal(t, ModeText, r.EffectiveMode())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "- **Key:** value", FormatKeyValue("Key", "value"))
}
