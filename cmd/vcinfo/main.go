// Command vcinfo prints the chunk layout a conversion run would use.
//
// Usage:
//
//	vcinfo [flags] [input.wav]
//
// With a WAV file it plans cuts on the actual signal; without one it
// reports the nominal layout for -duration seconds of audio.
//
// Examples:
//
//	vcinfo -duration 120
//	vcinfo -center 20 -query 4 recording.wav
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-vc/dsp/resample"
	"github.com/cwbudde/algo-vc/internal/wavio"
	"github.com/cwbudde/algo-vc/vc/chunk"
	"github.com/cwbudde/algo-vc/vc/pipeline"
)

func main() {
	duration := flag.Float64("duration", 60, "signal duration in seconds when no file is given")
	pad := flag.Float64("pad", chunk.DefaultPadSeconds, "per-chunk context padding in seconds")
	query := flag.Float64("query", chunk.DefaultQuerySeconds, "quiet-point search half-width in seconds")
	center := flag.Float64("center", chunk.DefaultCenterSeconds, "nominal chunk spacing in seconds")
	maxLen := flag.Float64("max", chunk.DefaultMaxSeconds, "chunking threshold in seconds")
	outRate := flag.Int("rate", 48000, "output sample rate used for padding conversion")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vcinfo [flags] [input.wav]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the chunk layout a conversion run would use.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vcinfo -duration 120\n")
		fmt.Fprintf(os.Stderr, "  vcinfo -center 20 -query 4 recording.wav\n")
	}
	flag.Parse()

	planner, err := chunk.NewPlanner(
		chunk.WithPadding(*pad),
		chunk.WithQueryWindow(*query),
		chunk.WithCenterInterval(*center),
		chunk.WithMaxLength(*maxLen),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	pcm, err := loadSignal(flag.Arg(0), *duration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	printLayout(planner, pcm, *outRate)
}

// loadSignal reads and normalizes the input file to the internal rate,
// or synthesizes silence of the requested duration.
func loadSignal(path string, duration float64) ([]float64, error) {
	if path == "" {
		return make([]float64, int(duration*pipeline.InternalRate)), nil
	}

	pcm, rate, err := wavio.Read(path)
	if err != nil {
		return nil, err
	}

	if rate == pipeline.InternalRate {
		return pcm, nil
	}

	r, err := resample.NewForRates(float64(rate), pipeline.InternalRate)
	if err != nil {
		return nil, err
	}

	return r.Process(pcm), nil
}

func printLayout(planner *chunk.Planner, pcm []float64, outRate int) {
	cuts := planner.Plan(pcm)
	bounds := append(cuts, len(pcm))

	fmt.Printf("signal: %d samples (%.2f s at %d Hz)\n",
		len(pcm), float64(len(pcm))/pipeline.InternalRate, pipeline.InternalRate)
	fmt.Printf("padding: %d samples per side (%d at %d Hz output)\n",
		planner.Pad(), planner.PadTarget(outRate), outRate)
	fmt.Printf("chunking threshold: %d samples, chunks: %d\n\n",
		planner.MaxChunk(), len(bounds))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Chunk\tStart\tEnd\tLength [s]\tFrames\tPadded Length\n")
	fmt.Fprintf(tw, "-----\t-----\t---\t----------\t------\t-------------\n")

	start := 0
	for i, end := range bounds {
		length := end - start
		padded := length + 2*planner.Pad()

		if end != len(pcm) {
			padded += pipeline.Hop
		}

		fmt.Fprintf(tw, "%d\t%d\t%d\t%.3f\t%d\t%d\n",
			i, start, end,
			float64(length)/pipeline.InternalRate,
			length/pipeline.Hop,
			padded)

		start = end
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write output: %v\n", err)
		os.Exit(1)
	}
}
