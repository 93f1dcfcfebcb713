// Command id3dump prints the ID3v2 frames of the audio files named on
// the command line.
//
// Usage:
//
//	id3dump [-config id3dump.toml] file.mp3 [file2.mp3 ...]
package main

import (
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/davrell/id3stream"
	"github.com/davrell/id3stream/frames"
	"github.com/davrell/id3stream/stream"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config file")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load config")
		}
	}

	if flag.NArg() == 0 {
		logger.Fatal().Msg("usage: id3dump [-config file.toml] <file>...")
	}

	failed := false
	for _, path := range flag.Args() {
		if err := dumpFile(logger, cfg, path); err != nil {
			logger.Error().Err(err).Str("file", path).Msg("dump failed")
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func dumpFile(logger zerolog.Logger, cfg config, path string) error {
	t, err := id3stream.ReadTag(path, stream.WithMaxFrameSize(cfg.MaxFrameSize))
	if err != nil {
		return err
	}

	logger.Info().
		Str("file", path).
		Uint8("version", t.Header.Version).
		Uint32("tag_size", t.Header.Size).
		Int("frames", len(t.Frames)).
		Msg("tag")

	for _, f := range t.Frames {
		if !cfg.wants(f.ID) {
			continue
		}

		ev := logger.Info().Str("frame", f.ID).Int("bytes", len(f.Data))

		if cfg.ShowText && strings.HasPrefix(f.ID, "T") {
			sf := stream.Frame{ID: f.ID, Flags: f.Flags, Data: f.Data}
			if payload, perr := frames.Payload(sf, t.Header.Version); perr == nil {
				sf.Data = payload
				if text, terr := frames.Text(sf); terr == nil && text != "" {
					ev = ev.Str("text", text)
				}
			}
		}

		ev.Msg("frame")
	}

	return nil
}
