package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teslashibe/go-atlas/internal/config"
	"github.com/teslashibe/go-atlas/internal/log"
	"github.com/teslashibe/go-atlas/pkg/atlas"
	"github.com/teslashibe/go-atlas/pkg/navigation"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level": "logger.level",
	"voice":     "mission.voice",
	"mode":      "search.mode",
	"robot":     "robot.driver",
	"planner":   "planner.provider",
	"dashboard": "dashboard.enabled",
	"addr":      "dashboard.addr",
}

type cli struct {
	cfgFile string
	stdin   io.Reader
	stdout  io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:           "atlas",
		Short:         "ATLAS fetches objects on command",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			log.Close()
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file (default is ./atlas.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(c.runCmd(), c.planCmd(), c.pathCmd(), c.calibrateCmd())
	return root
}

// load reads configuration, applies flags and sets up logging.
func (c *cli) load(cmd *cobra.Command) error {
	v, err := config.NewViper(c.cfgFile)
	if err != nil {
		return err
	}
	bindFlags(v, cmd)

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = log.Setup(log.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
	})
	return nil
}

// bindFlags overrides config keys with flags the user actually set.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
}

func (c *cli) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the mission loop and read commands from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := atlas.New(c.cfg, atlas.Options{Stdin: c.stdin, Stdout: c.stdout}, c.logger)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := app.Init(ctx); err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer app.Shutdown()

			return app.Run(ctx)
		},
	}
	cmd.Flags().Bool("voice", false, "voice mode: commands must start with the wake word")
	cmd.Flags().String("mode", "", "search mode: continuous or waypoint")
	cmd.Flags().String("robot", "", "robot driver: sim or http")
	cmd.Flags().String("planner", "", "planner: gemini or keyword")
	cmd.Flags().Bool("dashboard", false, "serve the web dashboard")
	cmd.Flags().String("addr", "", "dashboard listen address")
	return cmd
}

func (c *cli) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <command...>",
		Short: "Plan a command and print the intent without moving",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p, err := atlas.BuildPlanner(ctx, c.cfg.Planner, c.logger)
			if err != nil {
				return err
			}
			intent, err := p.Plan(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(intent)
		},
	}
	cmd.Flags().String("planner", "", "planner: gemini or keyword")
	return cmd
}

func (c *cli) pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the lawnmower search path for the configured area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := c.cfg.Search
			area := navigation.Area{Width: sc.AreaWidth, Height: sc.AreaHeight}
			path, err := navigation.Lawnmower(area, sc.Step)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %.2fx%.2f m, step %.2f: %d rows, %d waypoints\n",
				area.Width, area.Height, sc.Step, navigation.Rows(area, sc.Step), len(path))
			for i, p := range path {
				fmt.Fprintf(out, "%d\t%.2f\t%.2f\n", i+1, p.X, p.Y)
			}
			return nil
		},
	}
}

func (c *cli) calibrateCmd() *cobra.Command {
	var (
		object, color string
		distanceCm    float64
		widthCm       float64
		samples       int
		maxFrames     int
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure the camera focal length from an object at a known distance",
		Long: "Place the object squarely in view at --distance-cm from the lens. " +
			"The focal length is averaged over several detections and printed " +
			"as a perception.focal_length_px value.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()

			pc := c.cfg.Perception
			if widthCm <= 0 {
				w, ok := detection.NewDistanceEstimator(pc.FocalLengthPx, pc.KnownWidthsCm).RealWidth(object)
				if !ok {
					return fmt.Errorf("no known width for %q, pass --width-cm", object)
				}
				widthCm = w
			}

			src, err := atlas.OpenCamera(c.cfg.Camera, clock.New(), c.logger)
			if err != nil {
				return fmt.Errorf("open camera: %w", err)
			}
			defer src.Close()

			perc := atlas.NewPerception(pc, c.logger)
			defer perc.Close()
			desc := object
			if color != detection.Unknown {
				desc = color + " " + object
			}
			perc.SetTarget(detection.Target{Description: desc, Color: color, ObjectType: object})

			fmt.Fprintf(out, "📏 Calibrating on %s (%.1f cm wide) at %.1f cm\n", object, widthCm, distanceCm)
			cal, err := detection.Calibrate(ctx, src, perc, detection.CalibrationConfig{
				DistanceCm:  distanceCm,
				RealWidthCm: widthCm,
				Samples:     samples,
				MaxFrames:   maxFrames,
			}, c.logger)
			if err != nil {
				return fmt.Errorf("calibration failed after %d frames: %w", cal.Frames, err)
			}

			fmt.Fprintf(out, "   pixel widths: %v over %d frames\n", cal.PixelWidths, cal.Frames)
			fmt.Fprintf(out, "   current focal length: %.1f px\n", pc.FocalLengthPx)
			fmt.Fprintf(out, "perception.focal_length_px: %.1f\n", cal.FocalPx)
			return nil
		},
	}
	cmd.Flags().StringVar(&object, "object", "box", "object type to detect")
	cmd.Flags().StringVar(&color, "color", detection.Unknown, "object colour")
	cmd.Flags().Float64Var(&distanceCm, "distance-cm", 30, "distance from the lens to the object")
	cmd.Flags().Float64Var(&widthCm, "width-cm", 0, "real object width (default: perception.known_widths_cm)")
	cmd.Flags().IntVar(&samples, "samples", 10, "detections to average")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 150, "give up after this many frames")
	return cmd
}
