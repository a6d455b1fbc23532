// Package batch handles batch encode and decode lookups from stdin.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/hightemp/mapcode/internal/config"
	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/output"
	"github.com/hightemp/mapcode/internal/source"
	"github.com/hightemp/mapcode/internal/territory"
)

// ErrInvalidInput is reported for lines that are neither a coordinate nor a
// mapcode.
var ErrInvalidInput = errors.New("not a coordinate or mapcode")

// Processor handles batch lookups. Coordinate lines are encoded, mapcode
// lines decoded.
type Processor struct {
	src         source.Source
	names       territory.Table
	concurrency int
	logger      *slog.Logger
}

// NewProcessor creates a new batch processor. concurrency is clamped to
// [1, config.MaxConcurrency]; zero means config.DefaultConcurrency.
func NewProcessor(src source.Source, names territory.Table, concurrency int, logger *slog.Logger) *Processor {
	if concurrency == 0 {
		concurrency = config.DefaultConcurrency
	}
	concurrency = max(1, min(concurrency, config.MaxConcurrency))
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		src:         src,
		names:       names,
		concurrency: concurrency,
		logger:      logger.With("component", "batch"),
	}
}

// ProcessInput reads lines from r and writes results to w in input order.
// Text output is streamed; JSON output is written as one array at the end.
func (p *Processor) ProcessInput(ctx context.Context, r io.Reader, w io.Writer, jsonOutput bool) error {
	scanner := bufio.NewScanner(r)
	var results []*output.LookupResult

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result := p.Process(ctx, line)
		if jsonOutput {
			results = append(results, result)
			continue
		}
		fmt.Fprintln(w, result.FormatText())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, results)
	}
	return nil
}

// ProcessInputConcurrent reads all lines first and looks them up with
// bounded concurrency. Output keeps the input order.
func (p *Processor) ProcessInputConcurrent(ctx context.Context, r io.Reader, w io.Writer, jsonOutput bool) error {
	scanner := bufio.NewScanner(r)
	var lines []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	results := make([]*output.LookupResult, len(lines))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)

	for i, line := range lines {
		wg.Add(1)
		go func(idx int, input string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = p.Process(ctx, input)
		}(i, line)
	}
	wg.Wait()

	if jsonOutput {
		return writeJSON(w, results)
	}
	for _, result := range results {
		fmt.Fprintln(w, result.FormatText())
	}
	return nil
}

// Process looks up a single input line.
func (p *Processor) Process(ctx context.Context, input string) *output.LookupResult {
	if err := ctx.Err(); err != nil {
		return output.NewErrorResult(input, err)
	}

	mode := string(p.src.Mode())
	switch {
	case geo.LooksLikeCoordinate(input):
		c, err := geo.Parse(input)
		if err != nil {
			return output.NewErrorResult(input, err)
		}
		r, err := p.src.Encode(ctx, c)
		if err != nil {
			p.logger.Debug("encode failed", "input", input, "error", err)
			return output.NewErrorResult(input, err)
		}
		return output.NewEncodeResult(input, c, r, p.names, mode)

	case mapcode.IsMapcode(input):
		code := mapcode.Normalize(input)
		c, err := p.src.Decode(ctx, code)
		if err != nil {
			p.logger.Debug("decode failed", "input", input, "error", err)
			return output.NewErrorResult(input, err)
		}
		return output.NewDecodeResult(input, c, mode)

	default:
		return output.NewErrorResult(input, ErrInvalidInput)
	}
}

func writeJSON(w io.Writer, results []*output.LookupResult) error {
	batch := &output.BatchResult{Results: results}
	jsonStr, err := batch.FormatJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, jsonStr)
	return nil
}
