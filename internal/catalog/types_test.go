package catalog

import (
	"context"
	"iter"
	"testing"
)

func TestRecordDescriptorCount(t *testing.T) {
	tests := []struct {
		name     string
		rec      Record
		expected int
	}{
		{"empty", Record{DescriptorLength: 32}, 0},
		{"two descriptors", Record{Descriptors: make([]float64, 64), DescriptorLength: 32}, 2},
		{"uneven", Record{Descriptors: make([]float64, 33), DescriptorLength: 32}, -1},
		{"legacy without length", Record{Descriptors: make([]float64, 32)}, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.DescriptorCount(); got != tc.expected {
				t.Errorf("DescriptorCount() = %d; want %d", got, tc.expected)
			}
		})
	}
}

type stubWriter struct{}

func (stubWriter) FetchOne(ctx context.Context, id string) (*Record, error) { return nil, ErrNotFound }
func (stubWriter) FetchAll(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {}
}
func (stubWriter) Count(ctx context.Context) (int, error)               { return 0, nil }
func (stubWriter) Save(ctx context.Context, rec Record) (string, error) { return rec.ID, nil }
func (stubWriter) Delete(ctx context.Context, id string) error          { return nil }

func TestRegisterBackend(t *testing.T) {
	RegisterBackend("stub", func() Writer { return stubWriter{} })
	t.Cleanup(func() { RegisterBackend("", nil) })

	if !IsInitialized() {
		t.Fatal("expected backend to be initialized")
	}
	if BackendName() != "stub" {
		t.Errorf("expected backend name 'stub', got '%s'", BackendName())
	}

	if _, err := GetReader(context.Background()); err != nil {
		t.Errorf("GetReader failed: %v", err)
	}
}

func TestGetWriter_NotInitialized(t *testing.T) {
	RegisterBackend("", nil)

	if _, err := GetWriter(context.Background()); err == nil {
		t.Error("expected error when no backend is registered")
	}
}
