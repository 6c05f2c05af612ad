package index

import (
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
)

func testVectors() [][]float32 {
	return [][]float32{
		{0, 0},
		{1, 0},
		{0, 1},
		{10, 10},
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoVectors) {
		t.Fatalf("error = %v, want ErrNoVectors", err)
	}

	if _, err := New([][]float32{{1, 2}, {3}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchOrdering(t *testing.T) {
	x, err := New(testVectors())
	if err != nil {
		t.Fatal(err)
	}

	ids, dists, err := x.Search([]float64{0.1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}

	if ids[0] != 0 || ids[1] != 1 || ids[2] != 2 {
		t.Fatalf("ids = %v, want [0 1 2]", ids)
	}

	for i := 1; i < len(dists); i++ {
		if dists[i] < dists[i-1] {
			t.Fatalf("distances not ascending: %v", dists)
		}
	}
}

func TestSearchTiesStable(t *testing.T) {
	x, err := New([][]float32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}})
	if err != nil {
		t.Fatal(err)
	}

	ids, _, err := x.Search([]float64{0, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}

	want := []int{0, 1, 2, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("tied ids = %v, want %v", ids, want)
		}
	}
}

func TestSearchValidation(t *testing.T) {
	x, err := New(testVectors())
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := x.Search([]float64{1}, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}

	if _, _, err := x.Search([]float64{1, 2}, 0); !errors.Is(err, ErrInvalidK) {
		t.Fatalf("error = %v, want ErrInvalidK", err)
	}

	ids, _, err := x.Search([]float64{1, 2}, 100)
	if err != nil {
		t.Fatal(err)
	}

	if len(ids) != x.Len() {
		t.Fatalf("oversized k returned %d ids, want %d", len(ids), x.Len())
	}
}

func TestBlendZeroRatioPassthrough(t *testing.T) {
	x, err := New(testVectors())
	if err != nil {
		t.Fatal(err)
	}

	rows := [][]float64{{5, 5}, {2, 3}}
	want := [][]float64{{5, 5}, {2, 3}}

	if err := x.Blend(rows, 0); err != nil {
		t.Fatal(err)
	}

	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Fatalf("ratio 0 modified rows: %v", rows)
			}
		}
	}
}

func TestBlendUnavailablePassthrough(t *testing.T) {
	rows := [][]float64{{5, 5}}

	if err := Passthrough().Blend(rows, 1); err != nil {
		t.Fatal(err)
	}

	if rows[0][0] != 5 || rows[0][1] != 5 {
		t.Fatalf("pass-through index modified rows: %v", rows)
	}

	if Passthrough().Available() {
		t.Fatal("Passthrough() reports available")
	}
}

func TestBlendFullRatioPullsTowardNeighbors(t *testing.T) {
	x, err := New(testVectors())
	if err != nil {
		t.Fatal(err)
	}

	rows := [][]float64{{0.05, 0.05}}

	if err := x.Blend(rows, 1); err != nil {
		t.Fatal(err)
	}

	// The nearest neighbor (0,0) dominates through the inverse-square
	// weighting, so the blended row must land close to it.
	if math.Hypot(rows[0][0], rows[0][1]) > 0.5 {
		t.Fatalf("blended row = %v, want near origin", rows[0])
	}
}

func TestBlendRatioBounds(t *testing.T) {
	x, err := New(testVectors())
	if err != nil {
		t.Fatal(err)
	}

	if err := x.Blend([][]float64{{0, 0}}, 1.5); err == nil {
		t.Fatal("expected error for ratio > 1")
	}

	if err := x.Blend([][]float64{{0, 0, 0}}, 0.5); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speaker.idx")

	x, err := New(testVectors())
	if err != nil {
		t.Fatal(err)
	}

	if err := Save(path, x); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := Load(path, slog.Default())
	if !loaded.Available() {
		t.Fatal("loaded index unavailable")
	}

	if loaded.Len() != x.Len() || loaded.Dim() != x.Dim() {
		t.Fatalf("loaded %dx%d, want %dx%d", loaded.Len(), loaded.Dim(), x.Len(), x.Dim())
	}

	ids, _, err := loaded.Search([]float64{10, 9}, 1)
	if err != nil {
		t.Fatal(err)
	}

	if ids[0] != 3 {
		t.Fatalf("nearest = %d, want 3", ids[0])
	}
}

func TestLoadMissingFileDegrades(t *testing.T) {
	loaded := Load(filepath.Join(t.TempDir(), "absent.idx"), slog.Default())

	if loaded == nil || loaded.Available() {
		t.Fatal("missing file should degrade to pass-through")
	}
}
