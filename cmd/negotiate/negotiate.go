// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/negotiation"
	"github.com/ManuGH/mediagate/internal/playback"
	"github.com/ManuGH/mediagate/internal/surface"
	"github.com/ManuGH/mediagate/internal/version"
)

type negotiateFlags struct {
	file     string
	category string
	ua       string
	fail     string
	family   string
	base     string
	canPlay  string
	def      string
	output   string
	plan     bool
	version  bool
}

func parseNegotiateFlags(args []string, stderr io.Writer) (negotiateFlags, []string, error) {
	var f negotiateFlags
	fs := flag.NewFlagSet("negotiate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.file, "file", "", "path to YAML configuration file")
	fs.StringVar(&f.file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&f.category, "category", "video", "media category (audio or video)")
	fs.StringVar(&f.ua, "ua", "", "user agent of the playback client")
	fs.StringVar(&f.fail, "fail", "", "comma-separated URIs the simulated runtime fails to play")
	fs.StringVar(&f.family, "family", "per-source", "runtime family: per-source or final-only")
	fs.StringVar(&f.base, "base", "", "base URL relative sources resolve against")
	fs.StringVar(&f.canPlay, "canplay", "", "native type answers as mime=answer pairs, comma-separated")
	fs.StringVar(&f.def, "default", "", "default source URI that replaces the candidate list")
	fs.StringVar(&f.output, "o", "", "write the JSON result to this file instead of stdout")
	fs.BoolVar(&f.plan, "plan", false, "only probe and prune, do not run the runtime")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	return f, fs.Args(), nil
}

// runNegotiate implements the one-shot mode and returns the exit code.
func runNegotiate(args []string, stdout, stderr io.Writer) int {
	f, uris, err := parseNegotiateFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitReady
		}
		return exitUsage
	}
	if f.version {
		_, _ = fmt.Fprintln(stdout, version.String())
		return exitReady
	}
	if len(uris) == 0 && f.def == "" {
		_, _ = fmt.Fprintln(stderr, "Error: at least one source URI or -default is required")
		return exitUsage
	}

	req, err := f.request(uris)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	cfg, err := config.NewLoader(f.file).Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitError
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Output: stderr, Console: true})

	ctx := context.Background()
	var (
		result any
		code   int
	)
	if f.plan {
		plan, err := playback.Plan(ctx, cfg, req)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		result, code = plan, exitCode(plan.Terminal)
	} else {
		res, err := playback.Negotiate(ctx, cfg, req)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			if errors.Is(err, playback.ErrInvalidBaseURL) {
				return exitUsage
			}
			return exitError
		}
		result, code = res, exitCode(res.Kind)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: encode result: %v\n", err)
		return exitError
	}
	data = append(data, '\n')

	if f.output == "" {
		_, _ = stdout.Write(data)
		return code
	}
	if err := writeResult(f.output, data); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return code
}

func (f negotiateFlags) request(uris []string) (playback.Request, error) {
	cat, err := media.ParseCategory(f.category)
	if err != nil {
		return playback.Request{}, err
	}
	family, err := surface.ParseFamily(f.family)
	if err != nil {
		return playback.Request{}, err
	}
	canPlay, err := parsePairs(f.canPlay)
	if err != nil {
		return playback.Request{}, err
	}

	req := playback.Request{
		Category:  cat,
		UserAgent: f.ua,
		CanPlay:   canPlay,
		Failing:   splitList(f.fail),
		Family:    family,
		BaseURL:   f.base,
	}
	for _, uri := range uris {
		req.Sources = append(req.Sources, media.Source{URI: uri})
	}
	if f.def != "" {
		req.DefaultSource = &media.Source{URI: f.def}
	}
	return req, nil
}

func exitCode(kind negotiation.OutcomeKind) int {
	switch kind {
	case negotiation.OutcomeUnsupported:
		return exitUnsupported
	case negotiation.OutcomeNoCapability:
		return exitNoCapability
	default:
		return exitReady
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parsePairs parses "video/webm=probably,video/mp4=" into a map. An empty
// answer is the runtime's "cannot play".
func parsePairs(raw string) (map[string]string, error) {
	items := splitList(raw)
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		mimeType, answer, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(mimeType) == "" {
			return nil, fmt.Errorf("invalid -canplay entry %q (want mime=answer)", item)
		}
		out[strings.TrimSpace(mimeType)] = strings.TrimSpace(answer)
	}
	return out, nil
}
