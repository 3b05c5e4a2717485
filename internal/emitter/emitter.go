// Package emitter implements the edge node: it replays a simulation dataset
// through the pre-trained classifier and publishes raw records and verdicts
// on the bus.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"fog-fraud-lab/internal/alert"
	"fog-fraud-lab/internal/bus"
	"fog-fraud-lab/internal/dataset"
	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/model"
	"fog-fraud-lab/internal/observability"
)

// Emitter replays dataset rows and publishes two messages per row.
type Emitter struct {
	bus          bus.Bus
	artifact     *model.Artifact
	alerter      alert.Sender
	nodeStringID string
	rawTopic     string
	resultsTopic string
	delay        time.Duration
	logger       *log.Logger
	metrics      *observability.Metrics
}

// Options contains configuration for creating an Emitter.
type Options struct {
	Bus          bus.Bus
	Artifact     *model.Artifact
	Alerter      alert.Sender // nil disables the side-channel
	NodeStringID string       // e.g. "Fog_Node_1"
	RawTopic     string
	ResultsTopic string
	Delay        time.Duration // pause between rows, 0 for full speed
	Logger       *log.Logger
	Metrics      *observability.Metrics
}

// Result summarizes one replay run.
type Result struct {
	RowsPublished int
	FraudDetected int
	Duration      time.Duration
}

// New creates a new Emitter.
func New(opts Options) *Emitter {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	alerter := opts.Alerter
	if alerter == nil {
		alerter = alert.NopSender{}
	}
	return &Emitter{
		bus:          opts.Bus,
		artifact:     opts.Artifact,
		alerter:      alerter,
		nodeStringID: opts.NodeStringID,
		rawTopic:     opts.RawTopic,
		resultsTopic: opts.ResultsTopic,
		delay:        opts.Delay,
		logger:       logger,
		metrics:      opts.Metrics,
	}
}

// Replay streams every row from the reader: the raw record (ground-truth
// label stripped) goes to the raw-data topic, then the row is scaled,
// classified and the verdict published on the fraud-results topic. A
// positive verdict fires the alert side-channel; alert failures are logged
// and never propagated. Mid-stream publish failures skip the row.
func (e *Emitter) Replay(ctx context.Context, r *dataset.Reader) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		row, err := r.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return res, err
		}

		if err := e.publishRow(ctx, row, res); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			e.logger.Printf("Skipping row after publish failure: %v", err)
		}

		if e.delay > 0 {
			select {
			case <-time.After(e.delay):
			case <-ctx.Done():
				return res, ctx.Err()
			}
		}
	}

	res.Duration = time.Since(start)
	e.logger.Printf("Replay complete: %d rows, %d flagged as fraud in %v",
		res.RowsPublished, res.FraudDetected, res.Duration)
	return res, nil
}

func (e *Emitter) publishRow(ctx context.Context, row *dataset.Row, res *Result) error {
	rawPayload, err := e.encodeRaw(row)
	if err != nil {
		return err
	}
	if err := e.bus.Publish(ctx, e.rawTopic, rawPayload); err != nil {
		if e.metrics != nil {
			e.metrics.PublishErrors.WithLabelValues("raw").Inc()
		}
		return fmt.Errorf("publish raw row: %w", err)
	}

	prediction, err := e.classify(row)
	if err != nil {
		return err
	}

	resultPayload, err := json.Marshal(map[string]any{
		"Node_ID":    e.nodeStringID,
		"Time":       row.Time,
		"Prediction": prediction,
	})
	if err != nil {
		return fmt.Errorf("encode fraud result: %w", err)
	}
	if err := e.bus.Publish(ctx, e.resultsTopic, resultPayload); err != nil {
		if e.metrics != nil {
			e.metrics.PublishErrors.WithLabelValues("results").Inc()
		}
		return fmt.Errorf("publish fraud result: %w", err)
	}

	res.RowsPublished++
	if e.metrics != nil {
		e.metrics.RowsReplayed.Inc()
	}

	if prediction == domain.PredictionFraud {
		res.FraudDetected++
		e.sendAlert(row)
	}
	return nil
}

// encodeRaw serializes the row for the raw-data topic. The ground-truth
// Class label never leaves the edge node.
func (e *Emitter) encodeRaw(row *dataset.Row) ([]byte, error) {
	payload := make(map[string]any, domain.FeatureCount+3)
	payload["Node_ID"] = e.nodeStringID
	payload["Time"] = row.Time
	for i, f := range row.Features {
		payload[fmt.Sprintf("V%d", i+1)] = f
	}
	payload["Amount"] = row.Amount

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode raw row: %w", err)
	}
	return data, nil
}

func (e *Emitter) classify(row *dataset.Row) (int, error) {
	scaled, err := e.artifact.Transform(row.FeatureVector())
	if err != nil {
		return 0, err
	}
	return e.artifact.Predict(scaled)
}

// sendAlert fires the email side-channel. Failures are logged only.
func (e *Emitter) sendAlert(row *dataset.Row) {
	subject := fmt.Sprintf("Fraud alert from %s", e.nodeStringID)
	body := fmt.Sprintf("Node %s flagged a transaction as fraudulent (time=%v, amount=%v).",
		e.nodeStringID, fmtFloat(row.Time), fmtFloat(row.Amount))

	if err := e.alerter.Send(subject, body); err != nil {
		if e.metrics != nil {
			e.metrics.AlertSendErrors.Inc()
		}
		e.logger.Printf("Alert send failed (ignored): %v", err)
		return
	}
	if e.metrics != nil {
		e.metrics.AlertsSent.Inc()
	}
}

func fmtFloat(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *f)
}
