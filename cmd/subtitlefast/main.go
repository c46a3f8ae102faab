/*
DESCRIPTION
  subtitlefast is a thin CLI demo that wires the core pipeline up to one of
  two reference Decoder backends (a local MJPEG file or a live RTSP MJPEG
  camera) and writes the resulting cues to an SRT file, grounded on cmd/
  rv/main.go's lumberjack+logging.New wiring.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the subtitlefast command line demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/decoder"
	decfile "github.com/ausocean/subtitlefast/decoder/file"
	decrtsp "github.com/ausocean/subtitlefast/decoder/rtsp"
	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline"
	"github.com/ausocean/subtitlefast/pipeline/config"
	"github.com/ausocean/subtitlefast/pipeline/detector"
	"github.com/ausocean/subtitlefast/pipeline/types"
	"github.com/ausocean/subtitlefast/subtitle"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration, mirroring cmd/rv's lumberjack setup.
const (
	logPath      = "subtitlefast.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

const runID = "cli"

func main() {
	showVersion := flag.Bool("version", false, "show version")
	input := flag.String("input", "", "path to a local MJPEG/JPEG file to decode")
	rtspAddr := flag.String("rtsp", "", "RTSP URL of a live MJPEG camera to decode")
	track := flag.String("track", "track1", "RTSP track name (only used with -rtsp)")
	loop := flag.Bool("loop", false, "loop the input file (only used with -input)")
	out := flag.String("out", "out.srt", "output SRT file path")
	fps := flag.Uint("fps", config.DefaultSamplesPerSecond, "samples per second")
	target := flag.Uint("luma-target", 235, "detector luma band target (0-255)")
	delta := flag.Uint("luma-delta", 20, "detector luma band delta (0-255)")
	minArea := flag.Float64("min-area", 0, "detector minimum contour area (withcv builds only)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if (*input == "") == (*rtspAddr == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -input or -rtsp must be given")
		os.Exit(2)
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, fileLog, logSuppress)
	log.Info("starting subtitlefast", "version", version)

	cfg := config.Config{
		Logger:           log,
		SamplesPerSecond: uint32(*fps),
		LumaBandTarget:   uint8(*target),
		LumaBandDelta:    uint8(*delta),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err.Error())
	}

	var dec decoder.Decoder
	if *input != "" {
		dec = &decfile.Decoder{Path: *input, Loop: *loop, Logger: log}
	} else {
		dec = &decrtsp.Decoder{Addr: *rtspAddr, Track: *track, Logger: log}
	}

	det := newDetector(uint8(*target), uint8(*delta), *minArea)

	p := pipeline.New(cfg, dec, []detector.RegionDetector{det}, &placeholderEngine{})

	reg := pipeline.NewRegistry()
	if err := reg.Start(context.Background(), runID, p); err != nil {
		log.Fatal("could not start pipeline", "error", err.Error())
	}

	subs := collectSubtitles(log, p)

	if err := writeSRT(*out, subs); err != nil {
		log.Fatal("could not write output", "error", err.Error())
	}
	log.Info("done", "cues", len(subs), "output", *out)
}

// collectSubtitles drains both of the pipeline's output streams until it
// closes, folding each MergeEvent into the latest known state for its cue
// ID (an Updated event replaces the New/Updated event that preceded it),
// and logging periodic progress at Info.
func collectSubtitles(log logging.Logger, p *pipeline.Pipeline) []types.MergedSubtitle {
	byID := make(map[uint64]types.MergedSubtitle)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range p.Subtitles {
			byID[ev.Subtitle.ID] = ev.Subtitle
		}
	}()

	for pr := range p.Progress {
		if pr.Completed {
			log.Info("pipeline completed", "cues", pr.Cues, "merged", pr.Merged)
			break
		}
		log.Info("progress", "samples_seen", pr.SamplesSeen, "fps", pr.FPS, "cues", pr.Cues)
	}
	<-done

	subs := make([]types.MergedSubtitle, 0, len(byID))
	for _, s := range byID {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Start < subs[j].Start })
	return subs
}

func writeSRT(path string, subs []types.MergedSubtitle) error {
	return os.WriteFile(path, []byte(subtitle.RenderSRT(subs)), 0o644)
}

// placeholderEngine is a minimal stand-in OCR backend: character
// recognition itself is out of core scope, so this returns no text.
// Real deployments supply their own ocr.Engine (e.g. a Tesseract wrapper)
// in its place.
type placeholderEngine struct{}

func (placeholderEngine) WarmUp() error { return nil }

func (placeholderEngine) Recognize(f *frame.Frame, rects []frame.PixelRect) (types.OcrResult, error) {
	return types.OcrResult{}, nil
}
