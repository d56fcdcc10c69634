package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

type ExportData struct {
	Model    string             `json:"model"`
	Preset   string             `json:"preset,omitempty"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Labels   []string           `json:"labels"`
	Times    []float64          `json:"times"`
	States   [][]float64        `json:"states"`
	Params   map[string]float64 `json:"params,omitempty"`
	Metrics  map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, trace *Trace) error {
	data := ExportData{
		Model:    meta.Model,
		Preset:   meta.Preset,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    len(trace.Times),
		Labels:   trace.Labels,
		Times:    trace.Times,
		States:   trace.States,
		Params:   meta.Params,
		Metrics:  meta.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes a time column followed by one column per label.
func WriteCSV(w io.Writer, trace *Trace) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, trace.Labels...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, state := range trace.States {
		row := make([]string, 0, len(state)+1)
		t := 0.0
		if i < len(trace.Times) {
			t = trace.Times[i]
		}
		row = append(row, strconv.FormatFloat(t, 'f', 6, 64))
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
