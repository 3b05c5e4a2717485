// Package aggregation derives dashboard statistics from stored rows: node
// liveness classification, time-bucketed transaction volume and per-node
// fraud rates. All functions are pure; the callers pass in rows and a clock.
package aggregation

import (
	"sort"
	"time"

	"fog-fraud-lab/internal/domain"
)

// ClassifyStatus derives a display status from the node's last_seen time.
// A node seen within the threshold is online, within three thresholds is
// a warning, otherwise offline. A node never seen is unknown.
func ClassifyStatus(lastSeen *time.Time, now time.Time, threshold time.Duration) domain.NodeStatus {
	if lastSeen == nil {
		return domain.StatusUnknown
	}
	age := now.Sub(*lastSeen)
	switch {
	case age < threshold:
		return domain.StatusOnline
	case age < 3*threshold:
		return domain.StatusWarning
	default:
		return domain.StatusOffline
	}
}

// BucketWidth picks a histogram bucket width for the given ingestion-time
// span, widening as the span grows so the chart stays readable.
func BucketWidth(span time.Duration) time.Duration {
	switch {
	case span <= time.Hour:
		return time.Minute
	case span <= 6*time.Hour:
		return 5 * time.Minute
	case span <= 48*time.Hour:
		return 10 * time.Minute
	case span <= 7*24*time.Hour:
		return 30 * time.Minute
	default:
		return time.Hour
	}
}

// Bucket is one histogram bar: the bucket's start time and the number of
// transactions whose ingestion time falls inside it.
type Bucket struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// BucketCounts builds a chronological transaction-volume histogram. The
// bucket width adapts to the span between the oldest and newest ingestion
// times; empty buckets inside the span are included with a zero count.
func BucketCounts(transactions []*domain.TransactionWithNode) []Bucket {
	if len(transactions) == 0 {
		return nil
	}

	oldest := transactions[0].IngestedAt
	newest := transactions[0].IngestedAt
	for _, tx := range transactions[1:] {
		if tx.IngestedAt.Before(oldest) {
			oldest = tx.IngestedAt
		}
		if tx.IngestedAt.After(newest) {
			newest = tx.IngestedAt
		}
	}

	width := BucketWidth(newest.Sub(oldest))
	start := oldest.Truncate(width)
	n := int(newest.Sub(start)/width) + 1

	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].Start = start.Add(time.Duration(i) * width)
	}
	for _, tx := range transactions {
		idx := int(tx.IngestedAt.Sub(start) / width)
		buckets[idx].Count++
	}
	return buckets
}

// NodeFraudRate is the per-node slice of the fraud-rate chart.
type NodeFraudRate struct {
	NodeID     int64   `json:"node_id"`
	NodeName   string  `json:"node_name"`
	Total      int     `json:"total"`
	FraudCount int     `json:"fraud_count"`
	FraudRate  float64 `json:"fraud_rate"`
}

// FraudRateByNode computes each node's all-history fraud percentage from
// the full result set. Nodes with no results are omitted; output is sorted
// by node id for stable rendering.
func FraudRateByNode(results []*domain.FraudResultWithNode) []NodeFraudRate {
	byNode := make(map[int64]*NodeFraudRate)
	for _, r := range results {
		agg, ok := byNode[r.NodeID]
		if !ok {
			agg = &NodeFraudRate{NodeID: r.NodeID, NodeName: r.NodeName}
			byNode[r.NodeID] = agg
		}
		agg.Total++
		if r.Prediction == domain.PredictionFraud {
			agg.FraudCount++
		}
	}

	out := make([]NodeFraudRate, 0, len(byNode))
	for _, agg := range byNode {
		if agg.Total > 0 {
			agg.FraudRate = float64(agg.FraudCount) / float64(agg.Total) * 100
		}
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}
