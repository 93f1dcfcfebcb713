package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/davrell/id3stream/stream"
)

type config struct {
	// MaxFrameSize caps single-frame payloads while scanning.
	MaxFrameSize uint32

	// FrameIDs limits output to the listed frame ids. Empty means all.
	FrameIDs []string

	// ShowText decodes and prints the value of text frames.
	ShowText bool
}

type fileConfig struct {
	MaxFrameSize int64    `toml:"max_frame_size"`
	FrameIDs     []string `toml:"frame_ids"`
	ShowText     bool     `toml:"show_text"`
}

func defaultConfig() config {
	return config{
		MaxFrameSize: stream.DefaultMaxFrameSize,
		ShowText:     true,
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load id3dump config: %w", err)
	}

	if meta.IsDefined("max_frame_size") {
		if raw.MaxFrameSize <= 0 || raw.MaxFrameSize > int64(^uint32(0)) {
			return config{}, fmt.Errorf("max_frame_size out of range: %d", raw.MaxFrameSize)
		}
		cfg.MaxFrameSize = uint32(raw.MaxFrameSize)
	}

	if meta.IsDefined("frame_ids") {
		cfg.FrameIDs = normalizeFrameIDs(raw.FrameIDs)
	}

	if meta.IsDefined("show_text") {
		cfg.ShowText = raw.ShowText
	}

	return cfg, nil
}

func normalizeFrameIDs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		v := strings.ToUpper(strings.TrimSpace(id))
		if v == "" {
			continue
		}
		out = append(out, v)
	}

	return out
}

// wants reports whether the frame id passes the configured filter.
func (c config) wants(id string) bool {
	if len(c.FrameIDs) == 0 {
		return true
	}

	for _, want := range c.FrameIDs {
		if want == id {
			return true
		}
	}

	return false
}
