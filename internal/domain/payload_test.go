package domain

import (
	"errors"
	"testing"
)

func TestParseRawData(t *testing.T) {
	payload := []byte(`{"Time": 70178, "V1": -0.443, "V28": -0.072, "Amount": 11.99, "Node_ID": "Fog_Node_1"}`)

	p, err := ParseRawData(payload)
	if err != nil {
		t.Fatalf("ParseRawData() error = %v", err)
	}
	if p.NodeStringID != "Fog_Node_1" {
		t.Errorf("NodeStringID = %q, want Fog_Node_1", p.NodeStringID)
	}
	if p.Time == nil || *p.Time != 70178 {
		t.Errorf("Time = %v, want 70178", p.Time)
	}
	if p.Features[0] == nil || *p.Features[0] != -0.443 {
		t.Errorf("V1 = %v, want -0.443", p.Features[0])
	}
	if p.Features[27] == nil || *p.Features[27] != -0.072 {
		t.Errorf("V28 = %v, want -0.072", p.Features[27])
	}
	if p.Features[1] != nil {
		t.Errorf("V2 = %v, want nil for absent field", p.Features[1])
	}
	if p.Amount == nil || *p.Amount != 11.99 {
		t.Errorf("Amount = %v, want 11.99", p.Amount)
	}
}

func TestParseRawDataCaseInsensitive(t *testing.T) {
	payload := []byte(`{"time": 5, "v3": 1.5, "AMOUNT": 2, "node_id": "Fog_Node_2"}`)

	p, err := ParseRawData(payload)
	if err != nil {
		t.Fatalf("ParseRawData() error = %v", err)
	}
	if p.NodeStringID != "Fog_Node_2" {
		t.Errorf("NodeStringID = %q, want Fog_Node_2", p.NodeStringID)
	}
	if p.Features[2] == nil || *p.Features[2] != 1.5 {
		t.Errorf("V3 = %v, want 1.5", p.Features[2])
	}
	if p.Amount == nil || *p.Amount != 2 {
		t.Errorf("Amount = %v, want 2", p.Amount)
	}
}

func TestParseRawDataMissingNodeID(t *testing.T) {
	_, err := ParseRawData([]byte(`{"Time": 1, "Amount": 2}`))
	if !errors.Is(err, ErrMissingNodeID) {
		t.Fatalf("ParseRawData() error = %v, want ErrMissingNodeID", err)
	}
}

func TestParseRawDataMalformed(t *testing.T) {
	if _, err := ParseRawData([]byte(`{not json`)); err == nil {
		t.Fatal("ParseRawData() accepted malformed JSON")
	}
}

func TestParseFraudResult(t *testing.T) {
	p, err := ParseFraudResult([]byte(`{"Node_ID": "Fog_Node_1", "Time": 70178, "Prediction": 1}`))
	if err != nil {
		t.Fatalf("ParseFraudResult() error = %v", err)
	}
	if p.Prediction != PredictionFraud {
		t.Errorf("Prediction = %d, want %d", p.Prediction, PredictionFraud)
	}
	if !p.HasPrediction {
		t.Error("HasPrediction = false, want true")
	}
}

func TestParseFraudResultDefaultsPrediction(t *testing.T) {
	p, err := ParseFraudResult([]byte(`{"Node_ID": "Fog_Node_1", "Time": 70178}`))
	if err != nil {
		t.Fatalf("ParseFraudResult() error = %v", err)
	}
	if p.Prediction != PredictionLegitimate {
		t.Errorf("Prediction = %d, want %d", p.Prediction, PredictionLegitimate)
	}
	if p.HasPrediction {
		t.Error("HasPrediction = true, want false for absent field")
	}
}

func TestParseFraudResultMissingNodeID(t *testing.T) {
	_, err := ParseFraudResult([]byte(`{"Time": 1, "Prediction": 0}`))
	if !errors.Is(err, ErrMissingNodeID) {
		t.Fatalf("ParseFraudResult() error = %v, want ErrMissingNodeID", err)
	}
}
