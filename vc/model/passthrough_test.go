package model

import (
	"context"
	"errors"
	"testing"
)

func TestNewPassthroughValidation(t *testing.T) {
	if _, err := NewPassthrough(0); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("error = %v, want ErrInvalidRate", err)
	}
}

func TestExtractFrameLayout(t *testing.T) {
	p, err := NewPassthrough(16000)
	if err != nil {
		t.Fatal(err)
	}

	pcm := make([]float64, 3*320+100)
	for i := range pcm {
		pcm[i] = float64(i)
	}

	rows, err := p.Extract(context.Background(), pcm)
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (partial frame dropped)", len(rows))
	}

	if rows[1][0] != 320 || rows[2][319] != 959 {
		t.Fatalf("row contents misaligned: %v, %v", rows[1][0], rows[2][319])
	}
}

func TestInferLength(t *testing.T) {
	p, err := NewPassthrough(16000)
	if err != nil {
		t.Fatal(err)
	}

	features := make([][]float64, 10)
	for i := range features {
		features[i] = make([]float64, 320)
	}

	out, err := p.Infer(context.Background(), features, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 10*160 {
		t.Fatalf("len = %d, want %d", len(out), 10*160)
	}
}

func TestInferResamplesFrames(t *testing.T) {
	p, err := NewPassthrough(48000)
	if err != nil {
		t.Fatal(err)
	}

	features := [][]float64{make([]float64, 320)}

	out, err := p.Infer(context.Background(), features, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 480 {
		t.Fatalf("len = %d, want 480", len(out))
	}
}
