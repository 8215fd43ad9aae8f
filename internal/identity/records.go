package identity

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes key records as a YAML sequence.
func WriteYAML(w io.Writer, records []KeyRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode key records: %w", err)
	}
	return enc.Close()
}

// ReadYAML reads key records written by WriteYAML.
func ReadYAML(r io.Reader) ([]KeyRecord, error) {
	var records []KeyRecord
	if err := yaml.NewDecoder(r).Decode(&records); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode key records: %w", err)
	}
	return records, nil
}

// WriteJSON writes key records as an indented JSON array.
func WriteJSON(w io.Writer, records []KeyRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode key records: %w", err)
	}
	return nil
}

// ReadJSON reads key records written by WriteJSON.
func ReadJSON(r io.Reader) ([]KeyRecord, error) {
	var records []KeyRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode key records: %w", err)
	}
	return records, nil
}
