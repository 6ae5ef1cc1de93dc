package model

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PredictionJob describes the forecasting job a run was produced by.
type PredictionJob struct {
	ID              int       `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	Model           string    `yaml:"model" json:"model"`
	Quantiles       []float64 `yaml:"quantiles" json:"quantiles"`
	Type            string    `yaml:"type,omitempty" json:"type,omitempty"`
	HorizonsMinutes []int     `yaml:"horizon_minutes,omitempty" json:"horizon_minutes,omitempty"`
	ResolutionMins  int       `yaml:"resolution_minutes,omitempty" json:"resolution_minutes,omitempty"`
	Description     string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// Validate checks mandatory fields.
func (j PredictionJob) Validate() error {
	if j.Name == "" {
		return fmt.Errorf("prediction job name is required")
	}
	if j.Model == "" {
		return fmt.Errorf("prediction job %s: model is required", j.Name)
	}
	for _, q := range j.Quantiles {
		if q <= 0 || q >= 1 {
			return fmt.Errorf("prediction job %s: quantile %v outside (0,1)", j.Name, q)
		}
	}
	return nil
}

// Metadata returns the job fields stored alongside run artifacts.
func (j PredictionJob) Metadata() map[string]any {
	quantiles := j.Quantiles
	if quantiles == nil {
		quantiles = []float64{}
	}
	return map[string]any{
		"id":        j.ID,
		"name":      j.Name,
		"model":     j.Model,
		"quantiles": quantiles,
	}
}

// DecodeJob reads a YAML prediction job and validates it.
func DecodeJob(r io.Reader) (PredictionJob, error) {
	var j PredictionJob
	if err := yaml.NewDecoder(r).Decode(&j); err != nil {
		return PredictionJob{}, fmt.Errorf("decode prediction job: %w", err)
	}
	if err := j.Validate(); err != nil {
		return PredictionJob{}, err
	}
	return j, nil
}
