package source

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// pxwebResponse is the subset of a PxWeb JSON response the loader reads.
// Labels is not part of PxWeb; saved responses may carry it to map
// occupation codes to their text.
type pxwebResponse struct {
	Columns []pxwebColumn     `json:"columns"`
	Data    []pxwebDatum      `json:"data"`
	Labels  map[string]string `json:"labels"`
}

type pxwebColumn struct {
	Code string `json:"code"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type pxwebDatum struct {
	Key    []string  `json:"key"`
	Values []*string `json:"values"`
}

// ReadPxWeb parses a saved PxWeb response. Key positions of occupation, age
// and year are located from the column texts and fall back to 0, 1 and 2.
func ReadPxWeb(r io.Reader) ([]core.RawRecord, error) {
	var resp pxwebResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode pxweb response: %w", err)
	}

	occ, age, year := 0, 1, 2
	keyCols := 0
	for _, c := range resp.Columns {
		if c.Type == "c" {
			continue
		}
		text := strings.ToLower(c.Text + " " + c.Code)
		switch {
		case strings.Contains(text, "occupation") || strings.Contains(text, "yrke"):
			occ = keyCols
		case strings.Contains(text, "age") || strings.Contains(text, "ålder"):
			age = keyCols
		case strings.Contains(text, "year") || c.Code == "Tid":
			year = keyCols
		}
		keyCols++
	}

	out := make([]core.RawRecord, 0, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Key) <= max(occ, age, year) {
			return nil, fmt.Errorf("pxweb datum %d has %d key parts, want at least %d", i, len(d.Key), max(occ, age, year)+1)
		}
		code := d.Key[occ]
		label, ok := resp.Labels[code]
		if !ok {
			label = code
		}
		var value string
		if len(d.Values) > 0 && d.Values[0] != nil {
			value = *d.Values[0]
		}
		out = append(out, core.RawRecord{
			Code4:      code,
			Occupation: label,
			Age:        d.Key[age],
			Year:       d.Key[year],
			Value:      value,
		})
	}
	return out, nil
}
