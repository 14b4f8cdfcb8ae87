package beanstalkt

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var tagKeyCommand = tag.MustNewKey("command")

var (
	commandCountMeasurement = stats.Int64(
		"beanstalkt_command_count",
		"Commands sent to beanstalkd",
		"",
	)
	commandErrorCountMeasurement = stats.Int64(
		"beanstalkt_command_error_count",
		"Commands that completed with an error",
		"",
	)
	commandLatencyMeasurement = stats.Int64(
		"beanstalkt_command_roundtrip_latency",
		"Latency between writing a command and delivering its response",
		stats.UnitMilliseconds,
	)
	queueLatencyMeasurement = stats.Int64(
		"beanstalkt_command_queue_latency",
		"Time a command spent queued behind the single in-flight slot",
		stats.UnitMilliseconds,
	)
	reconnectCountMeasurement = stats.Int64(
		"beanstalkt_reconnect_count",
		"Times a lost connection was re-established",
		"",
	)
)

var (
	commandCountView = &view.View{
		Name:        commandCountMeasurement.Name(),
		Description: commandCountMeasurement.Description(),
		Measure:     commandCountMeasurement,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{tagKeyCommand},
	}
	commandErrorCountView = &view.View{
		Name:        commandErrorCountMeasurement.Name(),
		Description: commandErrorCountMeasurement.Description(),
		Measure:     commandErrorCountMeasurement,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{tagKeyCommand},
	}
	commandLatencyView = &view.View{
		Name:        commandLatencyMeasurement.Name(),
		Description: commandLatencyMeasurement.Description(),
		Measure:     commandLatencyMeasurement,
		Aggregation: view.Distribution(1, 2, 5, 10, 20, 50, 100, 1000),
		TagKeys:     []tag.Key{tagKeyCommand},
	}
	queueLatencyView = &view.View{
		Name:        queueLatencyMeasurement.Name(),
		Description: queueLatencyMeasurement.Description(),
		Measure:     queueLatencyMeasurement,
		Aggregation: view.Distribution(1, 2, 5, 10, 20, 50, 100, 1000),
		TagKeys:     []tag.Key{},
	}
	reconnectCountView = &view.View{
		Name:        reconnectCountMeasurement.Name(),
		Description: reconnectCountMeasurement.Description(),
		Measure:     reconnectCountMeasurement,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{},
	}
)

// MetricViews returns the opencensus views of this package, for callers
// that want to register them.
func MetricViews() []*view.View {
	return []*view.View{
		commandCountView,
		commandErrorCountView,
		commandLatencyView,
		queueLatencyView,
		reconnectCountView,
	}
}

func recordCommand(op string, sentAt time.Time, err error) {
	ctx, _ := tag.New(context.Background(), tag.Upsert(tagKeyCommand, op))

	measurements := []stats.Measurement{commandCountMeasurement.M(1)}
	if !sentAt.IsZero() {
		measurements = append(measurements, commandLatencyMeasurement.M(time.Since(sentAt).Milliseconds()))
	}
	if err != nil {
		measurements = append(measurements, commandErrorCountMeasurement.M(1))
	}

	stats.Record(ctx, measurements...)
}

func recordQueueLatency(d time.Duration) {
	stats.Record(context.Background(), queueLatencyMeasurement.M(d.Milliseconds()))
}

func recordReconnect() {
	stats.Record(context.Background(), reconnectCountMeasurement.M(1))
}
