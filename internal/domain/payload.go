package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingNodeID is returned when a payload carries no Node_ID field.
var ErrMissingNodeID = errors.New("payload has no Node_ID field")

// RawDataPayload is a decoded raw-data topic message:
//
//	{"Time": 70178, "V1": -0.443, ..., "V28": -0.072, "Amount": 11.99, "Node_ID": "Fog_Node_1"}
//
// Any of the numeric fields may be absent; absent values stay nil and are
// stored as NULL.
type RawDataPayload struct {
	NodeStringID string
	Time         *float64
	Features     [FeatureCount]*float64
	Amount       *float64
}

// FraudResultPayload is a decoded fraud-results topic message:
//
//	{"Node_ID": "Fog_Node_1", "Time": 70178, "Prediction": 1}
type FraudResultPayload struct {
	NodeStringID  string
	Time          *float64
	Prediction    int
	HasPrediction bool // false when the field was absent and 0 was defaulted
}

// fields wraps a decoded JSON object with case-insensitive key lookup.
// Field names map to columns case-insensitively aside from the fixed
// renaming scheme (Time -> time, V<k> -> feature k, Amount -> amount).
type fields map[string]any

func decodeFields(payload []byte) (fields, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	f := make(fields, len(raw))
	for k, v := range raw {
		f[strings.ToLower(k)] = v
	}
	return f, nil
}

func (f fields) str(key string) (string, bool) {
	v, ok := f[strings.ToLower(key)]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func (f fields) num(key string) *float64 {
	v, ok := f[strings.ToLower(key)]
	if !ok {
		return nil
	}
	n, ok := v.(float64)
	if !ok {
		return nil
	}
	return &n
}

// ParseRawData decodes a raw-data topic payload. Returns ErrMissingNodeID
// when the node identifier is absent.
func ParseRawData(payload []byte) (*RawDataPayload, error) {
	f, err := decodeFields(payload)
	if err != nil {
		return nil, err
	}

	nodeID, ok := f.str("Node_ID")
	if !ok {
		return nil, ErrMissingNodeID
	}

	p := &RawDataPayload{
		NodeStringID: nodeID,
		Time:         f.num("Time"),
		Amount:       f.num("Amount"),
	}
	for i := 0; i < FeatureCount; i++ {
		p.Features[i] = f.num(fmt.Sprintf("V%d", i+1))
	}
	return p, nil
}

// ParseFraudResult decodes a fraud-results topic payload. An absent
// Prediction field defaults to legitimate (0) with HasPrediction false so
// the caller can log the defaulting.
func ParseFraudResult(payload []byte) (*FraudResultPayload, error) {
	f, err := decodeFields(payload)
	if err != nil {
		return nil, err
	}

	nodeID, ok := f.str("Node_ID")
	if !ok {
		return nil, ErrMissingNodeID
	}

	p := &FraudResultPayload{
		NodeStringID: nodeID,
		Time:         f.num("Time"),
	}
	if pred := f.num("Prediction"); pred != nil {
		p.Prediction = int(*pred)
		p.HasPrediction = true
	}
	return p, nil
}
