package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hightemp/mapcode/internal/batch"
	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/output"
	"github.com/hightemp/mapcode/internal/source"
)

var (
	contextFlag     string
	batchConcurrent int
)

var encodeCmd = &cobra.Command{
	Use:   "encode LAT,LON",
	Short: "Get the mapcodes of a coordinate",
	Long: `Prints every mapcode of a coordinate: the shortest local mapcode
first, then the alternatives, then the international mapcode.

Examples:
  mapcode encode 52.376514,4.908543
  mapcode encode 52.376514 4.908543 --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return a.encode(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode MAPCODE",
	Short: "Get the coordinate of a mapcode",
	Long: `Prints the coordinate of a mapcode. Local mapcodes need their
territory, either as a prefix or with --context.

Examples:
  mapcode decode NLD 49.4V
  mapcode decode 49.4V --context NLD
  mapcode decode VHXGB.1J9J`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		code := mapcode.Qualify(strings.Join(args, " "), strings.ToUpper(contextFlag))
		return a.decode(cmd.Context(), cmd.OutOrStdout(), code)
	},
}

func init() {
	decodeCmd.Flags().StringVar(&contextFlag, "context", "", "territory of a local mapcode (e.g. NLD, US-CA)")
	rootCmd.Flags().IntVar(&batchConcurrent, "concurrency", 1, "parallel lookups for batch input (max 8)")
}

// runLookup handles "mapcode INPUT" and batch input on stdin.
func runLookup(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !isBatchMode(cmd.InOrStdin()) {
		return cmd.Help()
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if len(args) > 0 {
		input := strings.Join(args, " ")
		switch {
		case geo.LooksLikeCoordinate(input):
			return a.encode(ctx, w, input)
		case mapcode.IsMapcode(input):
			return a.decode(ctx, w, input)
		default:
			return withCode(ExitInvalidInput, fmt.Errorf("%q is not a coordinate or mapcode", input))
		}
	}

	processor := batch.NewProcessor(a.src, a.names, batchConcurrent, a.logger)
	if batchConcurrent > 1 {
		return processor.ProcessInputConcurrent(ctx, cmd.InOrStdin(), w, jsonOutput)
	}
	return processor.ProcessInput(ctx, cmd.InOrStdin(), w, jsonOutput)
}

func (a *app) encode(ctx context.Context, w io.Writer, input string) error {
	c, err := geo.Parse(input)
	if err != nil {
		return withCode(ExitInvalidInput, err)
	}

	r, err := a.src.Encode(ctx, c)
	if err != nil {
		return lookupError(err)
	}
	return printResult(w, output.NewEncodeResult(c.PathParam(), c, r, a.names, string(a.src.Mode())))
}

func (a *app) decode(ctx context.Context, w io.Writer, input string) error {
	code := mapcode.Normalize(input)
	if !mapcode.IsMapcode(code) {
		return withCode(ExitInvalidInput, fmt.Errorf("%q is not a mapcode", input))
	}

	c, err := a.src.Decode(ctx, code)
	if err != nil {
		return lookupError(err)
	}
	return printResult(w, output.NewDecodeResult(code, c, string(a.src.Mode())))
}

// lookupError adds a hint to offline misses.
func lookupError(err error) error {
	if errors.Is(err, source.ErrUnavailable) {
		return withCode(ExitNoData, fmt.Errorf("%w; look it up once while online to cache it", err))
	}
	return err
}

func printResult(w io.Writer, r *output.LookupResult) error {
	if jsonOutput {
		jsonStr, err := r.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, jsonStr)
		return nil
	}
	fmt.Fprintln(w, r.FormatText())
	return nil
}

// isBatchMode checks if we're receiving batch input
func isBatchMode(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
