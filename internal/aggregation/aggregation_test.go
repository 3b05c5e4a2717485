package aggregation

import (
	"testing"
	"time"

	"fog-fraud-lab/internal/domain"
)

func TestClassifyStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := time.Minute

	tests := []struct {
		name string
		age  time.Duration
		want domain.NodeStatus
	}{
		{"just seen", 0, domain.StatusOnline},
		{"within threshold", 59 * time.Second, domain.StatusOnline},
		{"past threshold", 61 * time.Second, domain.StatusWarning},
		{"just under triple", 179 * time.Second, domain.StatusWarning},
		{"past triple", 181 * time.Second, domain.StatusOffline},
		{"long gone", 24 * time.Hour, domain.StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := now.Add(-tt.age)
			if got := ClassifyStatus(&seen, now, threshold); got != tt.want {
				t.Errorf("ClassifyStatus(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestClassifyStatusNeverSeen(t *testing.T) {
	if got := ClassifyStatus(nil, time.Now(), time.Minute); got != domain.StatusUnknown {
		t.Errorf("ClassifyStatus(nil) = %v, want unknown", got)
	}
}

func TestBucketWidth(t *testing.T) {
	tests := []struct {
		span time.Duration
		want time.Duration
	}{
		{45 * time.Minute, time.Minute},
		{time.Hour, time.Minute},
		{3 * time.Hour, 5 * time.Minute},
		{2 * 24 * time.Hour, 10 * time.Minute},
		{5 * 24 * time.Hour, 30 * time.Minute},
		{10 * 24 * time.Hour, time.Hour},
	}

	for _, tt := range tests {
		if got := BucketWidth(tt.span); got != tt.want {
			t.Errorf("BucketWidth(%v) = %v, want %v", tt.span, got, tt.want)
		}
	}
}

func txAt(ingested time.Time) *domain.TransactionWithNode {
	return &domain.TransactionWithNode{
		Transaction: domain.Transaction{IngestedAt: ingested},
	}
}

func TestBucketCountsEmpty(t *testing.T) {
	if got := BucketCounts(nil); got != nil {
		t.Errorf("BucketCounts(nil) = %v, want nil", got)
	}
}

func TestBucketCounts(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)

	// 45-minute span picks 1-minute buckets.
	txs := []*domain.TransactionWithNode{
		txAt(base),
		txAt(base.Add(20 * time.Second)),
		txAt(base.Add(10 * time.Minute)),
		txAt(base.Add(45 * time.Minute)),
	}

	buckets := BucketCounts(txs)
	if len(buckets) != 46 {
		t.Fatalf("len(buckets) = %d, want 46", len(buckets))
	}
	if !buckets[0].Start.Equal(base.Truncate(time.Minute)) {
		t.Errorf("buckets[0].Start = %v, want %v", buckets[0].Start, base.Truncate(time.Minute))
	}
	if buckets[0].Count != 2 {
		t.Errorf("buckets[0].Count = %d, want 2", buckets[0].Count)
	}
	if buckets[10].Count != 1 {
		t.Errorf("buckets[10].Count = %d, want 1", buckets[10].Count)
	}
	if buckets[45].Count != 1 {
		t.Errorf("buckets[45].Count = %d, want 1", buckets[45].Count)
	}

	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != len(txs) {
		t.Errorf("bucket counts sum to %d, want %d", total, len(txs))
	}

	for i := 1; i < len(buckets); i++ {
		if !buckets[i].Start.After(buckets[i-1].Start) {
			t.Fatalf("buckets not chronological at %d", i)
		}
	}
}

func TestBucketCountsWideSpan(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	txs := []*domain.TransactionWithNode{
		txAt(base),
		txAt(base.Add(2 * 24 * time.Hour)),
	}

	buckets := BucketCounts(txs)
	width := buckets[1].Start.Sub(buckets[0].Start)
	if width != 10*time.Minute {
		t.Errorf("bucket width = %v, want 10m for a 2-day span", width)
	}
}

func resultFor(nodeID int64, name string, prediction int) *domain.FraudResultWithNode {
	return &domain.FraudResultWithNode{
		FraudResult: domain.FraudResult{NodeID: nodeID, Prediction: prediction},
		NodeName:    name,
	}
}

func TestFraudRateByNode(t *testing.T) {
	results := []*domain.FraudResultWithNode{
		resultFor(1, "Fog Node 1", domain.PredictionFraud),
		resultFor(1, "Fog Node 1", domain.PredictionLegitimate),
		resultFor(1, "Fog Node 1", domain.PredictionLegitimate),
		resultFor(1, "Fog Node 1", domain.PredictionLegitimate),
		resultFor(2, "Fog Node 2", domain.PredictionLegitimate),
	}

	rates := FraudRateByNode(results)
	if len(rates) != 2 {
		t.Fatalf("len(rates) = %d, want 2", len(rates))
	}

	if rates[0].NodeID != 1 || rates[1].NodeID != 2 {
		t.Fatalf("rates not ordered by node id: %+v", rates)
	}
	if rates[0].Total != 4 || rates[0].FraudCount != 1 || rates[0].FraudRate != 25 {
		t.Errorf("node 1 = %+v, want total=4 fraud=1 rate=25", rates[0])
	}
	if rates[1].FraudRate != 0 {
		t.Errorf("node 2 rate = %v, want 0", rates[1].FraudRate)
	}
}

func TestFraudRateByNodeEmpty(t *testing.T) {
	if got := FraudRateByNode(nil); len(got) != 0 {
		t.Errorf("FraudRateByNode(nil) = %v, want empty", got)
	}
}
