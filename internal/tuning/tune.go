package tuning

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"funding-ledger/internal/storage"
)

// WaveType is the requested waveform.
type WaveType string

const (
	WaveSine     WaveType = "sine"
	WaveSquare   WaveType = "square"
	WaveTriangle WaveType = "triangle"
	WaveSawtooth WaveType = "sawtooth"
)

// IsValid reports whether w is a known waveform.
func (w WaveType) IsValid() bool {
	switch w {
	case WaveSine, WaveSquare, WaveTriangle, WaveSawtooth:
		return true
	}
	return false
}

// Request is a frequency-tune input.
type Request struct {
	Frequency float64  `json:"frequency"`
	Amplitude float64  `json:"amplitude"`
	WaveType  WaveType `json:"waveType"`
}

// Result is a frequency-tune output.
type Result struct {
	Frequency        float64         `json:"frequency"`
	Amplitude        float64         `json:"amplitude"`
	WaveType         WaveType        `json:"waveType"`
	BaseValue        decimal.Decimal `json:"baseValue"`
	Multiplier       decimal.Decimal `json:"multiplier"`
	MatchedFrequency bool            `json:"matchedFrequency"`
	EnhancedFunding  decimal.Decimal `json:"enhancedFunding"`
	Resonance        int             `json:"resonance"`
}

// Tuner applies a Table to requests.
type Tuner struct {
	table *Table
}

// NewTuner creates a tuner. A nil table uses DefaultTable.
func NewTuner(table *Table) *Tuner {
	if table == nil {
		table = DefaultTable()
	}
	return &Tuner{table: table}
}

// Tune computes the enhanced funding value for req.
func (t *Tuner) Tune(req Request) (*Result, error) {
	if math.IsNaN(req.Frequency) || math.IsInf(req.Frequency, 0) || req.Frequency <= 0 {
		return nil, fmt.Errorf("frequency must be a positive number: %w", storage.ErrInvalidInput)
	}
	if math.IsNaN(req.Amplitude) || req.Amplitude < 0 || req.Amplitude > 1 {
		return nil, fmt.Errorf("amplitude must be within [0, 1]: %w", storage.ErrInvalidInput)
	}

	wave := WaveType(strings.ToLower(strings.TrimSpace(string(req.WaveType))))
	if wave == "" {
		wave = WaveSine
	}
	if !wave.IsValid() {
		return nil, fmt.Errorf("waveType %q is not supported: %w", req.WaveType, storage.ErrInvalidInput)
	}

	mult, matched := t.table.Multiplier(req.Frequency)
	gain := decimal.NewFromInt(1).Add(decimal.NewFromFloat(req.Amplitude).Mul(t.table.AmplitudeGain))

	return &Result{
		Frequency:        req.Frequency,
		Amplitude:        req.Amplitude,
		WaveType:         wave,
		BaseValue:        t.table.BaseValue,
		Multiplier:       mult,
		MatchedFrequency: matched,
		EnhancedFunding:  t.table.BaseValue.Mul(mult).Mul(gain),
		Resonance:        int(math.Round(85 + math.Sin(req.Frequency/100)*15)),
	}, nil
}
