package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mprviewer/internal/logger"
	"mprviewer/internal/models"
	"mprviewer/pkg/config"
	"mprviewer/pkg/loader"
	"mprviewer/pkg/mpr"
	"mprviewer/pkg/visualization"
	"mprviewer/pkg/window"
)

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// openEngine loads the stack in dir into a new engine configured from cfg.
func openEngine(dir string) (*mpr.Engine, *mpr.Views, error) {
	slabs, err := loader.LoadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Loaded slices", "dir", dir, "count", len(slabs))

	engine := mpr.NewEngine(
		mpr.WithLogger(logger.Logger),
		mpr.WithParallel(cfg.Viewer.Parallel),
		mpr.WithWindow(cfg.Viewer.Window),
	)
	views, err := engine.Load(loader.Matrices(slabs))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build volume from %s: %w", dir, err)
	}
	return engine, views, nil
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <dir>",
		Short: "Describe the volume stacked from a directory of slices",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			engine, views, err := openEngine(args[0])
			if err != nil {
				return err
			}

			shape := engine.Shape()
			fmt.Println(headingStyle.Render("Volume"))
			fmt.Printf("  shape:  %s (%s voxels, %s)\n", shape,
				humanize.Comma(int64(shape.Voxels())), humanize.Bytes(uint64(shape.Voxels())*8))
			fmt.Printf("  cursor: %s\n", views.Cursor)
			fmt.Println(headingStyle.Render("Views"))
			for _, axis := range models.Axes {
				s := views.Slice(axis)
				rows, cols := s.Dims()
				fmt.Printf("  %-10s %dx%d at %d  min=%.4g max=%.4g mean=%.4g sd=%.4g\n",
					axis, rows, cols, s.Position, s.Raw.Min, s.Raw.Max, s.Raw.Mean, s.Raw.StdDev)
			}
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	var (
		cursorFlag string
		sliders    []string
		clicks     []string
		brightness int
		contrast   int
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "render <dir>",
		Short: "Export the three views at a cursor position",
		Long: `Export the sagittal, coronal and transverse views of a volume.

Cursor updates are applied in order: --cursor first, then every --slider,
then every --click. Brightness and contrast are given in slider units
(-100..100 and 1..200).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, views, err := openEngine(args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("brightness") {
				views = refresh(views, engine.SetBrightness(window.BrightnessFromSlider(brightness)))
			}
			if cmd.Flags().Changed("contrast") {
				views = refresh(views, engine.SetContrast(window.ContrastFromSlider(contrast)))
			}

			if cursorFlag != "" {
				c, err := parseCursor(cursorFlag)
				if err != nil {
					return err
				}
				for _, axis := range models.Axes {
					views = refresh(views, engine.SetCursorFromSlider(axis, c[axis.Bound()]))
				}
			}
			for _, s := range sliders {
				axis, value, err := parseSlider(s)
				if err != nil {
					return err
				}
				views = refresh(views, engine.SetCursorFromSlider(axis, value))
			}
			for _, c := range clicks {
				axis, row, col, err := parseClick(c)
				if err != nil {
					return err
				}
				views = refresh(views, engine.SetCursorFromClick(axis, row, col))
			}

			if outputDir == "" {
				outputDir = cfg.Export.OutputDir
			}
			paths, err := visualization.NewExporter(cfg).SaveViews(views, outputDir)
			if err != nil {
				return err
			}

			fmt.Printf("Cursor %s, brightness %.2f, contrast %.2f\n",
				views.Cursor, views.Window.Brightness, views.Window.Contrast)
			for _, p := range paths {
				fmt.Println("  " + p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cursorFlag, "cursor", "", "Cursor position as i,j,k")
	cmd.Flags().StringArrayVar(&sliders, "slider", nil, "Slider update as axis=value (repeatable)")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "Click as axis:row,col in slice indices (repeatable)")
	cmd.Flags().IntVar(&brightness, "brightness", 0, "Brightness in slider units (-100..100)")
	cmd.Flags().IntVar(&contrast, "contrast", 50, "Contrast in slider units (1..200)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory [default: from config]")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		axisName  string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "sweep <dir>",
		Short: "Export every slice along one axis",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			axis, err := models.ParseAxis(axisName)
			if err != nil {
				return err
			}
			engine, _, err := openEngine(args[0])
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = cfg.Export.OutputDir
			}
			fmt.Printf("Saving %s slices to: %s\n", axis, outputDir)
			return visualization.NewExporter(cfg).SaveSliceSequence(engine, axis, outputDir)
		},
	}

	cmd.Flags().StringVar(&axisName, "axis", "transverse", "Axis to sweep (sagittal|coronal|transverse)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory [default: from config]")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := cfgPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

// refresh keeps the latest rendered views; a nil update means nothing
// changed.
func refresh(current, updated *mpr.Views) *mpr.Views {
	if updated == nil {
		return current
	}
	return updated
}

func parseCursor(s string) (models.Cursor, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.Cursor{}, fmt.Errorf("invalid cursor %q: want i,j,k", s)
	}
	var c models.Cursor
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.Cursor{}, fmt.Errorf("invalid cursor %q: %w", s, err)
		}
		c[i] = v
	}
	return c, nil
}

func parseSlider(s string) (models.Axis, int, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, fmt.Errorf("invalid slider %q: want axis=value", s)
	}
	axis, err := models.ParseAxis(name)
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid slider %q: %w", s, err)
	}
	return axis, v, nil
}

func parseClick(s string) (models.Axis, int, int, error) {
	name, pos, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid click %q: want axis:row,col", s)
	}
	axis, err := models.ParseAxis(name)
	if err != nil {
		return 0, 0, 0, err
	}
	rowStr, colStr, ok := strings.Cut(pos, ",")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid click %q: want axis:row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid click %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid click %q: %w", s, err)
	}
	return axis, row, col, nil
}
