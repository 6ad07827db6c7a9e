package core

import (
	"errors"
	"testing"
)

func TestUploadMetricsAverage(t *testing.T) {
	m := NewUploadMetrics()
	if got := m.AverageBytes(); got != 0 {
		t.Fatalf("empty average = %v, want 0", got)
	}

	m.Update(UploadSample{VertexBytes: 64, IndexBytes: 12, TransformBytes: 48, Primitives: 1})
	m.Update(UploadSample{VertexBytes: 128, Primitives: 3, Rejected: 2})

	if got, want := m.AverageBytes(), float64(64+12+48+128)/2; got != want {
		t.Errorf("AverageBytes() = %v, want %v", got, want)
	}
	if got := m.AveragePrimitives(); got != 2 {
		t.Errorf("AveragePrimitives() = %v, want 2", got)
	}
	if m.RejectedTotal != 2 {
		t.Errorf("RejectedTotal = %d, want 2", m.RejectedTotal)
	}
}

func TestUploadMetricsWindowWraps(t *testing.T) {
	m := NewUploadMetrics()
	for i := 0; i < int(AVG_COUNT)+5; i++ {
		m.Update(UploadSample{VertexBytes: 10})
	}
	if m.Filled != AVG_COUNT {
		t.Fatalf("Filled = %d, want %d", m.Filled, AVG_COUNT)
	}
	if got := m.AverageBytes(); got != 10 {
		t.Errorf("AverageBytes() = %v, want 10", got)
	}
	if m.Frames != uint64(AVG_COUNT)+5 {
		t.Errorf("Frames = %d", m.Frames)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{in: "debug", want: LogLevelDebug},
		{in: " WARN ", want: LogLevelWarn},
		{in: "", want: LogLevelInfo},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("err = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCapacityErrorsWrapRoot(t *testing.T) {
	for _, err := range []error{ErrVertexLimit, ErrIndexLimit, ErrGroupLimit, ErrGeomInfoLimit, ErrTransformLimit} {
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Errorf("%v does not wrap ErrCapacityExceeded", err)
		}
	}
}
