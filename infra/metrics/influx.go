package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/drplan/core/metrics"
	"github.com/kilianp07/drplan/infra/logger"
)

const writeTimeout = 5 * time.Second

// InfluxSink writes plan lifecycle points to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPlan writes a dr_plan point.
func (s *InfluxSink) RecordPlan(rec coremetrics.PlanRecord) error {
	p := write.NewPointWithMeasurement("dr_plan").
		AddTag("plan_id", rec.PlanID).
		AddTag("strategy", rec.Strategy).
		AddTag("stress", rec.Stress).
		AddField("target_mw", round3(rec.TargetMW)).
		AddField("predicted_mw", round3(rec.PredictedMW)).
		AddField("confidence", round3(rec.Confidence)).
		AddField("allocations", rec.Allocations).
		AddField("degraded", rec.Degraded).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordTransition writes a dr_plan_transition point.
func (s *InfluxSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	p := write.NewPointWithMeasurement("dr_plan_transition").
		AddTag("plan_id", rec.PlanID).
		AddTag("from", rec.From).
		AddTag("to", rec.To).
		AddField("actor", rec.Actor).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordSignal writes a dr_signal point.
func (s *InfluxSink) RecordSignal(rec coremetrics.SignalRecord) error {
	p := write.NewPointWithMeasurement("dr_signal").
		AddTag("plan_id", rec.PlanID).
		AddTag("cohort_id", rec.CohortID).
		AddTag("signal_type", rec.Type).
		AddTag("status", rec.Status).
		AddTag("acknowledged", strconv.FormatBool(rec.Acknowledged)).
		AddField("target_kw", round3(rec.TargetKW)).
		AddField("latency_ms", round3(rec.Latency.Seconds()*1000)).
		AddField("errors", rec.Error).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordResponse writes a dr_response point.
func (s *InfluxSink) RecordResponse(rec coremetrics.ResponseRecord) error {
	p := write.NewPointWithMeasurement("dr_response").
		AddTag("plan_id", rec.PlanID).
		AddTag("cohort_id", rec.CohortID).
		AddTag("accepted", strconv.FormatBool(rec.Accepted)).
		AddField("committed_kw", round3(rec.CommittedKW)).
		AddField("participating_accounts", rec.ParticipatingAccounts).
		SetTime(rec.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
