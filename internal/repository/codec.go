package repository

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func encodeFields(fields map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("could not encode document: %w", err)
	}
	return data, nil
}

func decodeFields(data []byte) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if len(data) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("could not decode document: %w", err)
	}
	return fields, nil
}

// mergeFields applies a shallow update: top-level keys in updates replace
// the stored ones, everything else is kept.
func mergeFields(stored, updates map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(stored)+len(updates))
	for k, v := range stored {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
