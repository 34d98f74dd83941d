package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// OTLPCore is a zapcore.Core that ships log records to the OTel Collector's
// HTTP log endpoint in batches. Export failures never propagate to callers.
type OTLPCore struct {
	zapcore.LevelEnabler
	endpoint    string
	serviceName string
	client      *http.Client

	mu     sync.Mutex
	buffer []logRecord

	batchSize     int
	batchInterval time.Duration
	stop          chan struct{}
	wg            sync.WaitGroup
}

// logRecord is one OTLP JSON log record
type logRecord struct {
	Timestamp         int64      `json:"timeUnixNano"`
	ObservedTimestamp int64      `json:"observedTimeUnixNano"`
	SeverityNumber    int32      `json:"severityNumber"`
	SeverityText      string     `json:"severityText"`
	Body              otlpValue  `json:"body"`
	Attributes        []otlpAttr `json:"attributes,omitempty"`
	TraceID           string     `json:"traceId,omitempty"`
	SpanID            string     `json:"spanId,omitempty"`
}

type otlpValue map[string]interface{}

type otlpAttr struct {
	Key   string    `json:"key"`
	Value otlpValue `json:"value"`
}

func strVal(s string) otlpValue  { return otlpValue{"stringValue": s} }
func intVal(i int64) otlpValue   { return otlpValue{"intValue": i} }
func boolVal(b bool) otlpValue   { return otlpValue{"boolValue": b} }
func numVal(f float64) otlpValue { return otlpValue{"doubleValue": f} }

// NewOTLPCore builds the OTLP core, or nil when no endpoint is configured.
// The configured endpoint is the collector's gRPC address; logs go over HTTP,
// which the collector conventionally serves one port up (4317 -> 4318).
func NewOTLPCore(cfg *Config, level zapcore.LevelEnabler) *OTLPCore {
	if cfg == nil || cfg.OTLPEndpoint == "" {
		return nil
	}

	endpoint := cfg.OTLPEndpoint
	if strings.HasSuffix(endpoint, ":4317") {
		endpoint = strings.TrimSuffix(endpoint, ":4317") + ":4318"
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	batchInterval := cfg.BatchInterval
	if batchInterval <= 0 {
		batchInterval = time.Second
	}
	timeout := cfg.OTLPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	core := &OTLPCore{
		LevelEnabler:  level,
		endpoint:      fmt.Sprintf("http://%s/v1/logs", endpoint),
		serviceName:   cfg.ServiceName,
		client:        &http.Client{Timeout: timeout},
		buffer:        make([]logRecord, 0, batchSize),
		batchSize:     batchSize,
		batchInterval: batchInterval,
		stop:          make(chan struct{}),
	}

	core.wg.Add(1)
	go core.flushLoop()

	return core
}

// With returns the core unchanged; fields are attached at write time
func (c *OTLPCore) With(fields []zapcore.Field) zapcore.Core {
	return c
}

func (c *OTLPCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write buffers the entry; a full buffer triggers an async flush
func (c *OTLPCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	record := logRecord{
		Timestamp:         ent.Time.UnixNano(),
		ObservedTimestamp: time.Now().UnixNano(),
		SeverityNumber:    severityNumber(ent.Level),
		SeverityText:      ent.Level.String(),
		Body:              strVal(ent.Message),
	}

	attrs := make([]otlpAttr, 0, len(fields)+1)
	if ent.Caller.Defined {
		attrs = append(attrs, otlpAttr{Key: "caller", Value: strVal(ent.Caller.String())})
	}

	for _, f := range fields {
		// Trace correlation rides on dedicated record fields, not attributes
		switch f.Key {
		case "trace_id":
			record.TraceID = f.String
			continue
		case "span_id":
			record.SpanID = f.String
			continue
		}
		if value, ok := fieldValue(f); ok {
			attrs = append(attrs, otlpAttr{Key: f.Key, Value: value})
		}
	}
	record.Attributes = attrs

	c.mu.Lock()
	c.buffer = append(c.buffer, record)
	full := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if full {
		go c.flush()
	}
	return nil
}

// Sync flushes buffered records
func (c *OTLPCore) Sync() error {
	c.flush()
	return nil
}

// Close stops the flush loop and drains the buffer
func (c *OTLPCore) Close() error {
	close(c.stop)
	c.wg.Wait()
	c.flush()
	return nil
}

func (c *OTLPCore) flushLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stop:
			return
		}
	}
}

func (c *OTLPCore) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	records := make([]logRecord, len(c.buffer))
	copy(records, c.buffer)
	c.buffer = c.buffer[:0]
	c.mu.Unlock()

	payload := map[string]interface{}{
		"resourceLogs": []map[string]interface{}{{
			"resource": map[string]interface{}{
				"attributes": []otlpAttr{
					{Key: "service.name", Value: strVal(c.serviceName)},
					{Key: "service.namespace", Value: strVal("novatix")},
				},
			},
			"scopeLogs": []map[string]interface{}{{
				"scope":      map[string]string{"name": "go.uber.org/zap"},
				"logRecords": records,
			}},
		}},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Telemetry export must never take the application down with it
		return
	}
	resp.Body.Close()
}

// severityNumber maps zap levels onto OTLP severity numbers
func severityNumber(level zapcore.Level) int32 {
	switch level {
	case zapcore.DebugLevel:
		return 5
	case zapcore.InfoLevel:
		return 9
	case zapcore.WarnLevel:
		return 13
	case zapcore.ErrorLevel:
		return 17
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return 21
	default:
		return 0
	}
}

// fieldValue converts a zap field into an OTLP attribute value
func fieldValue(f zapcore.Field) (otlpValue, bool) {
	switch f.Type {
	case zapcore.StringType:
		return strVal(f.String), true
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return intVal(f.Integer), true
	case zapcore.Float64Type:
		return numVal(math.Float64frombits(uint64(f.Integer))), true
	case zapcore.Float32Type:
		return numVal(float64(math.Float32frombits(uint32(f.Integer)))), true
	case zapcore.BoolType:
		return boolVal(f.Integer == 1), true
	case zapcore.DurationType:
		return strVal(time.Duration(f.Integer).String()), true
	case zapcore.TimeType:
		return strVal(time.Unix(0, f.Integer).UTC().Format(time.RFC3339Nano)), true
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return strVal(err.Error()), true
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok {
			return strVal(s.String()), true
		}
	default:
		if f.Interface != nil {
			if data, err := json.Marshal(f.Interface); err == nil {
				return strVal(string(data)), true
			}
		}
	}
	return nil, false
}
