package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	cluster "github.com/MadAppGang/supercluster"
	"github.com/MadAppGang/supercluster/internal/config"
	"github.com/MadAppGang/supercluster/internal/logging"
	"github.com/MadAppGang/supercluster/internal/server"
	"github.com/MadAppGang/supercluster/internal/source"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "supercluster [command] [flags] [args]",
		Short:         "supercluster clusters point features for map rendering",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "`<Config>` yaml file")
	rootCmd.PersistentFlags().StringP("data", "d", "", "`<Data>` geojson, .zst or sqlite file, overrides the config")

	queryCmd := &cobra.Command{
		Use:   "query [flags]",
		Short: "Print the clusters of a bounding box as GeoJSON",
		RunE:  doQuery,
	}
	queryCmd.Flags().String("bbox", "-180,-85,180,85", "`<West,South,East,North>` bounding box")
	queryCmd.Flags().IntP("zoom", "z", 0, "`<Zoom>` level")

	tileCmd := &cobra.Command{
		Use:   "tile [flags] <z> <x> <y>",
		Short: "Print the clusters of a tile in tile coordinates",
		RunE:  doTile,
	}
	tileCmd.Args = cobra.ExactArgs(3)

	serveCmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve cluster queries over HTTP",
		RunE:  doServe,
	}
	serveCmd.Flags().String("addr", "", "`<Addr>` to listen on, overrides the config")

	rootCmd.AddCommand(
		queryCmd,
		tileCmd,
		serveCmd,
	)
	return rootCmd
}

// setup reads the configuration and the data named by the flags.
func setup(cmd *cobra.Command) (*config.Config, *cluster.Cluster, io.Closer, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		cfg.Data = data
	}

	// query and tile print their result on stdout
	if cmd.Name() != "serve" && (cfg.Log.Filename == "" || cfg.Log.Filename == "-") {
		cfg.Log.Filename = "stderr"
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	opts, err := cfg.Cluster.Options()
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}
	opts.Logger = log

	c, err := cluster.New(opts)
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}
	return cfg, c, closer, nil
}

func load(ctx context.Context, cfg *config.Config, c *cluster.Cluster) error {
	if cfg.Data == "" {
		return fmt.Errorf("no data file, use --data or the config file")
	}
	features, err := source.Read(ctx, cfg.Data, cfg.Query)
	if err != nil {
		return err
	}
	_, err = c.Load(features)
	return err
}

func doQuery(cmd *cobra.Command, args []string) error {
	cfg, c, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	bboxFlag, _ := cmd.Flags().GetString("bbox")
	zoom, _ := cmd.Flags().GetInt("zoom")
	bbox, err := parseBBox(bboxFlag)
	if err != nil {
		return err
	}
	if err := load(cmd.Context(), cfg, c); err != nil {
		return err
	}

	features, err := c.GetClusters(bbox, zoom)
	if err != nil {
		return err
	}
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, features...)
	return printJSON(cmd.OutOrStdout(), fc)
}

func doTile(cmd *cobra.Command, args []string) error {
	var zxy [3]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid tile coordinate %q", a)
		}
		zxy[i] = n
	}

	cfg, c, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	if err := load(cmd.Context(), cfg, c); err != nil {
		return err
	}

	tile, err := c.GetTile(zxy[1], zxy[2], zxy[0])
	if err != nil {
		return err
	}
	if tile == nil {
		tile = &cluster.Tile{Features: []cluster.TileFeature{}}
	}
	return printJSON(cmd.OutOrStdout(), tile)
}

func doServe(cmd *cobra.Command, args []string) error {
	cfg, c, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	s := server.New(c, server.Config{
		CacheTTL:      cfg.CacheTTL,
		CacheCapacity: cfg.CacheCapacity,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		Logger:        c.Options().Logger,
	})
	defer s.Close()

	if cfg.Data != "" {
		features, err := source.Read(cmd.Context(), cfg.Data, cfg.Query)
		if err != nil {
			return err
		}
		if _, err := s.Load(features); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx, cfg.Addr)
}

func parseBBox(v string) ([4]float64, error) {
	var bbox [4]float64
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return bbox, fmt.Errorf("bbox must be west,south,east,north, got %q", v)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return bbox, fmt.Errorf("bbox: %w", err)
		}
		bbox[i] = f
	}
	return bbox, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
