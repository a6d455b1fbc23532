package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hightemp/mapcode/internal/server"
	"github.com/hightemp/mapcode/internal/source"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local gateway for the Mapcode API",
	Long: `Serves the Mapcode API routes used by this tool from the configured
source, so other programs get the result cache and the offline fallback:

  GET /mapcode/codes/{lat},{lon}
  GET /mapcode/coords/{mapcode}
  GET /mapcode/territories/
  GET /healthz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if portFlag != 0 {
			a.cfg.Server.Port = portFlag
		}

		ctx := cmd.Context()
		if f, ok := a.src.(*source.Fallback); ok {
			go probeOnline(ctx, f, a.cfg.Limits.Online)
		}
		if a.fileStore != nil {
			go saveEvery(ctx, a, time.Minute)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s (source: %s)\n", a.cfg.ServerAddr(), a.src.Mode())
		return server.New(a.src, a.logger).ListenAndServe(ctx, a.cfg.ServerAddr())
	},
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "listen port (default from config, 8080)")
}
