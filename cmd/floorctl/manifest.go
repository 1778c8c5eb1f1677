package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/johngerving/3D-Building-Map-sub000/internal/asset"
	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
)

const fetchTimeout = 15 * time.Second

// loadManifest reads a building manifest in any format viper understands
// (yaml, json, toml). Floor fields use the same names as the API.
func loadManifest(path string) (*document.Building, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var b document.Building
	if err := v.Unmarshal(&b); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(b.Floors) == 0 {
		return nil, fmt.Errorf("manifest %s has no floors", path)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// newFetcher resolves floor sources for the CLI: built-in samples, /assets/
// paths under assetsDir, http(s) URLs, and otherwise files relative to the
// manifest's directory.
func newFetcher(manifestDir, assetsDir string) engine.Fetcher {
	samples := engine.StaticFetcher(document.SampleSources)
	remote := asset.NewFetcher(assetsDir, fetchTimeout)
	return engine.FetcherFunc(func(ctx context.Context, source string) (io.ReadCloser, error) {
		switch {
		case strings.HasPrefix(source, "sample://"):
			return samples.Fetch(ctx, source)
		case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
			return remote.Fetch(ctx, source)
		case strings.HasPrefix(source, "/assets/") && assetsDir != "":
			return remote.Fetch(ctx, source)
		}

		path := source
		if !filepath.IsAbs(path) {
			path = filepath.Join(manifestDir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", source, err)
		}
		return f, nil
	})
}

func writeOutput(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
