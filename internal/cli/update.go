package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hightemp/mapcode/internal/cache"
	"github.com/hightemp/mapcode/internal/config"
	"github.com/hightemp/mapcode/internal/snapshot"
	"github.com/hightemp/mapcode/internal/source"
	"github.com/hightemp/mapcode/internal/territory"
)

var (
	timeFlag   string
	force      bool
	pruneCache bool
	keepCount  int
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the territory table for offline use",
	Long: `Downloads the territory names from the Mapcode API and stores them
as a dated snapshot, used for territory names when offline.

Examples:
  mapcode update                # Snapshot for today
  mapcode update --force        # Replace today's snapshot
  mapcode update --prune-cache  # Also drop expired cached results
  mapcode update --keep 3       # Remove all but the 3 newest snapshots`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&timeFlag, "time", "", "snapshot date label (YYYY-MM-DD, default today)")
	updateCmd.Flags().BoolVar(&force, "force", false, "rebuild even if snapshot exists")
	updateCmd.Flags().BoolVar(&pruneCache, "prune-cache", false, "remove expired entries from the result cache")
	updateCmd.Flags().IntVar(&keepCount, "keep", 0, "number of snapshots to keep, 0 keeps all")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	cfg, mode, err := loadConfig()
	if err != nil {
		return err
	}
	if mode == source.ModeOffline {
		return withCode(ExitInvalidInput, errors.New("update needs the Mapcode API, drop --offline"))
	}

	snapshotDate := timeFlag
	if snapshotDate == "" {
		snapshotDate = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", snapshotDate); err != nil {
		return withCode(ExitInvalidInput, fmt.Errorf("invalid date %q, use YYYY-MM-DD", snapshotDate))
	}

	if pruneCache {
		pruneResults(cmd, cfg)
	}

	mgr := snapshot.NewManager(cfg.Cache.Dir)
	if !force && mgr.Exists(snapshotDate) {
		fmt.Fprintf(w, "Snapshot for %s already exists. Use --force to rebuild.\n", snapshotDate)
		return pruneSnapshots(cmd, mgr)
	}

	a := &app{cfg: cfg, logger: cfg.NewLogger(), mode: mode}
	client := a.apiClient()

	startTime := time.Now()
	fmt.Fprintf(w, "Downloading territories from %s...", client.BaseURL())
	resp, err := client.Territories(ctx)
	if err != nil {
		fmt.Fprintln(w)
		return withCode(ExitRemoteFailed, err)
	}
	table := territory.FromNames(resp.Names())
	fmt.Fprintf(w, " %d territories\n", table.Len())

	meta := snapshot.NewMetadata()
	meta.Host = client.BaseURL()
	dir, err := mgr.Write(snapshotDate, table, meta)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	missing := 0
	for _, code := range territory.Embedded().Codes() {
		if _, ok := table[code]; !ok {
			missing++
		}
	}

	fmt.Fprintf(w, "\nSnapshot built successfully in %v\n", time.Since(startTime).Round(time.Millisecond))
	fmt.Fprintf(w, "  Date: %s\n", snapshotDate)
	fmt.Fprintf(w, "  Territories: %d\n", table.Len())
	if missing > 0 {
		fmt.Fprintf(w, "  Built-in names not returned by the API: %d\n", missing)
	}
	fmt.Fprintf(w, "  Location: %s\n", dir)
	return pruneSnapshots(cmd, mgr)
}

func pruneSnapshots(cmd *cobra.Command, mgr *snapshot.Manager) error {
	if keepCount <= 0 {
		return nil
	}
	removed, err := mgr.Prune(keepCount)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if len(removed) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old snapshots: %s\n", len(removed), strings.Join(removed, ", "))
	}
	return nil
}

func pruneResults(cmd *cobra.Command, cfg *config.Config) {
	w := cmd.OutOrStdout()
	if cfg.Cache.Redis.Addr != "" {
		fmt.Fprintln(w, "Redis cache entries expire on their own, nothing to prune.")
		return
	}

	store := cache.NewFileStore(config.ResultCachePath(cfg.Cache.Dir), cfg.Cache.TTLDays)
	if err := store.Load(); err != nil {
		fmt.Fprintf(w, "Warning: could not load result cache: %v\n", err)
		return
	}
	removed := store.Cleanup()
	if err := store.Save(); err != nil {
		fmt.Fprintf(w, "Warning: could not save result cache: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Pruned %d expired results, %d left.\n", removed, store.Size())
}
