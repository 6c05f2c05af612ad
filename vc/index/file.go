package index

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// fileFormat is the on-disk shape of a serialized index.
type fileFormat struct {
	Dim     int         `msgpack:"dim"`
	Vectors [][]float32 `msgpack:"vectors"`
}

// Save writes the index to path in msgpack form.
func Save(path string, x *Index) error {
	if !x.Available() {
		return ErrNoVectors
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("index: create %s: %w", path, err)
	}
	defer f.Close()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(fileFormat{Dim: x.dim, Vectors: x.vectors}); err != nil {
		return fmt.Errorf("index: encode %s: %w", path, err)
	}

	return f.Close()
}

// Load reads an index from path. Any failure degrades to a pass-through
// index with a warning on logger, so conversion proceeds without
// retrieval instead of failing outright.
func Load(path string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}

	x, err := load(path)
	if err != nil {
		logger.Warn("feature index unavailable, retrieval disabled",
			"path", path, "error", err)

		return Passthrough()
	}

	return x
}

func load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	defer f.Close()

	var ff fileFormat

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&ff); err != nil {
		return nil, fmt.Errorf("index: decode %s: %w", path, err)
	}

	x, err := New(ff.Vectors)
	if err != nil {
		return nil, err
	}

	if ff.Dim != x.dim {
		return nil, fmt.Errorf("%w: header says %d, vectors are %d wide", ErrDimensionMismatch, ff.Dim, x.dim)
	}

	return x, nil
}
