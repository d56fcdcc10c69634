package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/san-kum/physlab/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was produced.
type RunInfo struct {
	Model    string
	Preset   string
	Dt       float64
	Duration float64
	Params   map[string]float64
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	StepsTaken int                `json:"steps_taken"`
	Labels     []string           `json:"labels"`
	Params     map[string]float64 `json:"params,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
}

// Trace is the time series of a stored run.
type Trace struct {
	Labels []string
	Times  []float64
	States [][]float64
}

// Column extracts one labelled series. It reports false when the label is
// missing.
func (t *Trace) Column(label string) ([]float64, bool) {
	idx := dynamo.Index(t.Labels, label)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, 0, len(t.States))
	for _, s := range t.States {
		if idx < len(s) {
			out = append(out, s[idx])
		}
	}
	return out, true
}

func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", info.Model, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Model:      info.Model,
		Preset:     info.Preset,
		Timestamp:  now,
		Dt:         info.Dt,
		Duration:   info.Duration,
		StepsTaken: result.StepsTaken,
		Labels:     result.Labels,
		Params:     info.Params,
		Metrics:    result.Metrics,
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	trace := &Trace{Labels: result.Labels, Times: result.Times, States: make([][]float64, len(result.States))}
	for i, st := range result.States {
		trace.States[i] = st
	}
	if err := WriteCSV(csvFile, trace); err != nil {
		return "", err
	}

	return runID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadStates reads the stored trace. The first CSV column is time, the rest
// follow the header labels.
func (s *Store) LoadStates(runID string) (*Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	trace := &Trace{Times: []float64{}, States: [][]float64{}}
	if len(records) == 0 {
		return trace, nil
	}
	if len(records[0]) > 1 {
		trace.Labels = records[0][1:]
	}

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		state := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				val = 0
			}
			state = append(state, val)
		}
		trace.Times = append(trace.Times, t)
		trace.States = append(trace.States, state)
	}

	return trace, nil
}
