package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// Model is a trained forecasting model able to serialize its own state.
type Model interface {
	SaveModel(w io.Writer) error
}

// RawModel carries an already serialized JSON model, such as one exported by
// the training pipeline.
type RawModel struct {
	Data []byte
}

// NewRawModel validates data as JSON.
func NewRawModel(data []byte) (RawModel, error) {
	if !json.Valid(data) {
		return RawModel{}, fmt.Errorf("model state is not valid JSON")
	}
	return RawModel{Data: data}, nil
}

// SaveModel writes the stored bytes unchanged.
func (m RawModel) SaveModel(w io.Writer) error {
	_, err := w.Write(m.Data)
	return err
}
