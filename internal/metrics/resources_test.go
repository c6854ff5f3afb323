package metrics

import (
	"testing"

	"github.com/pagepulse/pagepulse/internal/timing"
)

func res(name string, size int64) timing.ResourceEntry {
	return timing.ResourceEntry{Name: name, TransferSize: size}
}

func TestLargeResources_FilterAndOrder(t *testing.T) {
	got := LargeResources([]timing.ResourceEntry{
		res("small.js", 50_000),
		res("vendor.js", 150_000),
		res("hero.jpg", 300_000),
		res("app.css", 120_000),
	})

	want := []int64{300_000, 150_000, 120_000}
	if len(got) != len(want) {
		t.Fatalf("retained: got %d resources, want %d", len(got), len(want))
	}
	for i, size := range want {
		if got[i].TransferSize != size {
			t.Errorf("resource[%d]: got size %d, want %d", i, got[i].TransferSize, size)
		}
	}
	if got[0].Name != "hero.jpg" {
		t.Errorf("largest resource: got %q, want hero.jpg", got[0].Name)
	}
}

func TestLargeResources_ThresholdIsExclusive(t *testing.T) {
	got := LargeResources([]timing.ResourceEntry{
		res("exactly-at-threshold", 100_000),
		res("just-over", 100_001),
	})
	if len(got) != 1 {
		t.Fatalf("retained: got %d, want 1", len(got))
	}
	if got[0].Name != "just-over" {
		t.Errorf("retained: got %q, want just-over", got[0].Name)
	}
}

func TestLargeResources_CapsAtTen(t *testing.T) {
	entries := make([]timing.ResourceEntry, 0, 15)
	for i := 0; i < 15; i++ {
		entries = append(entries, res("r", int64(200_000+i*1000)))
	}
	got := LargeResources(entries)
	if len(got) != 10 {
		t.Fatalf("retained: got %d, want 10", len(got))
	}
	// The ten largest survive, still sorted descending.
	for i := 1; i < len(got); i++ {
		if got[i].TransferSize > got[i-1].TransferSize {
			t.Errorf("resources out of order at %d: %d > %d",
				i, got[i].TransferSize, got[i-1].TransferSize)
		}
	}
	if got[0].TransferSize != 214_000 {
		t.Errorf("largest: got %d, want 214000", got[0].TransferSize)
	}
}

func TestLargeResources_Empty(t *testing.T) {
	if got := LargeResources(nil); len(got) != 0 {
		t.Errorf("nil input: got %d resources, want 0", len(got))
	}
}
