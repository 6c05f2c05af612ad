// Command vcconvert runs the voice conversion pipeline on a WAV file.
//
// Usage:
//
//	vcconvert [flags] -in input.wav -out output.wav
//
// The built-in passthrough model pair is used unless a real model
// backend is wired in, which makes vcconvert useful for exercising the
// full pipeline (filtering, chunking, pitch, retrieval, loudness) on
// real recordings.
//
// Examples:
//
//	vcconvert -in voice.wav -out converted.wav -transpose 5
//	vcconvert -in voice.wav -out converted.wav -config run.yaml -index speaker.idx
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-vc/dsp/resample"
	"github.com/cwbudde/algo-vc/internal/wavio"
	"github.com/cwbudde/algo-vc/vc/index"
	"github.com/cwbudde/algo-vc/vc/model"
	"github.com/cwbudde/algo-vc/vc/pipeline"
	"github.com/cwbudde/algo-vc/vc/pitch"
)

// runConfig mirrors pipeline.Context in YAML form, with the method as a
// parseable selection string.
type runConfig struct {
	Transpose         int     `yaml:"transpose"`
	Method            string  `yaml:"method"`
	IndexRate         float64 `yaml:"index_rate"`
	FilterRadius      int     `yaml:"filter_radius"`
	RMSMixRate        float64 `yaml:"rms_mix_rate"`
	Protect           float64 `yaml:"protect"`
	OutputRate        int     `yaml:"output_rate"`
	TrackerHop        int     `yaml:"tracker_hop"`
	Speaker           int     `yaml:"speaker"`
	PitchConditioning bool    `yaml:"pitch_conditioning"`
}

func defaultConfig() runConfig {
	return runConfig{
		Method:            "pm",
		RMSMixRate:        1,
		Protect:           0.33,
		OutputRate:        48000,
		PitchConditioning: true,
	}
}

func main() {
	in := flag.String("in", "", "input WAV file")
	out := flag.String("out", "", "output WAV file")
	configPath := flag.String("config", "", "YAML file with conversion parameters")
	indexPath := flag.String("index", "", "speaker feature index file")
	transpose := flag.Int("transpose", 0, "pitch shift in semitones (overrides config)")
	method := flag.String("method", "", "pitch method, e.g. pm or hybrid[pm+harvest] (overrides config)")
	rate := flag.Int("rate", 0, "output sample rate (overrides config)")
	genRate := flag.Int("gen-rate", 16000, "passthrough generator sample rate")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*in, *out, *configPath, *indexPath, *transpose, *method, *rate, *genRate, logger); err != nil {
		logger.Error("conversion failed", "error", err)
		os.Exit(1)
	}
}

func run(in, out, configPath, indexPath string, transpose int, method string, rate, genRate int, logger *slog.Logger) error {
	if in == "" || out == "" {
		return fmt.Errorf("both -in and -out are required")
	}

	cfg := defaultConfig()

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}

	if transpose != 0 {
		cfg.Transpose = transpose
	}

	if method != "" {
		cfg.Method = method
	}

	if rate != 0 {
		cfg.OutputRate = rate
	}

	methods, err := pitch.ParseMethods(cfg.Method)
	if err != nil {
		return err
	}

	cc := pipeline.Context{
		TransposeSemitones: cfg.Transpose,
		Methods:            methods,
		IndexRate:          cfg.IndexRate,
		FilterRadius:       cfg.FilterRadius,
		RMSMixRate:         cfg.RMSMixRate,
		Protect:            cfg.Protect,
		OutputRate:         cfg.OutputRate,
		TrackerHop:         cfg.TrackerHop,
		SpeakerID:          cfg.Speaker,
		PitchConditioning:  cfg.PitchConditioning,
	}

	pcm, inRate, err := wavio.Read(in)
	if err != nil {
		return err
	}

	logger.Info("input loaded", "path", in, "samples", len(pcm), "rate", inRate)

	if inRate != pipeline.InternalRate {
		r, err := resample.NewForRates(float64(inRate), pipeline.InternalRate)
		if err != nil {
			return fmt.Errorf("resample input: %w", err)
		}

		pcm = r.Process(pcm)
	}

	m, err := model.NewPassthrough(genRate)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithCache(pitch.NewCache())}
	if indexPath != "" {
		opts = append(opts, pipeline.WithIndex(index.Load(indexPath, logger)))
	}

	p, err := pipeline.New(m, m, opts...)
	if err != nil {
		return err
	}

	converted, err := p.Process(context.Background(), cc, pcm)
	if err != nil {
		return err
	}

	if err := wavio.Write(out, converted, cc.OutputRate); err != nil {
		return err
	}

	logger.Info("output written", "path", out, "samples", len(converted), "rate", cc.OutputRate)

	return nil
}
