// Command fwdcompute computes an MEG/EEG forward solution.
//
// Usage:
//
//	fwdcompute [flags] -settings job.yaml
//
// The settings file names every input document; relative names are taken
// from the settings file's directory. The gain matrix is written to the
// SQLite database named by solname, and points dropped by the distance
// filter to mindistoutname when it is set.
//
// Examples:
//
//	fwdcompute -settings job.yaml
//	fwdcompute -settings job.yaml -log debug
//	fwdcompute -list-models
//	fwdcompute -runs out.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/katalvlaran/leadfield/archivist"
	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/forward"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/loader"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/store"
)

var levels = map[string]int{
	"debug":   archivist.LEVEL_DEBUG,
	"info":    archivist.LEVEL_INFO,
	"warning": archivist.LEVEL_WARNING,
	"error":   archivist.LEVEL_ERROR,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "fwdcompute:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fwdcompute", flag.ContinueOnError)
	fs.SetOutput(stderr)
	settingsPath := fs.String("settings", "", "settings file (YAML or JSON)")
	level := fs.String("log", "info", "log level: debug, info, warning, error")
	listModels := fs.Bool("list-models", false, "list sphere models (built-in and -models file) and exit")
	modelsPath := fs.String("models", "", "sphere model file for -list-models")
	runsDB := fs.String("runs", "", "list the runs stored in a solution database and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fwdcompute [flags] -settings job.yaml\n\n")
		fmt.Fprintf(stderr, "Computes the MEG/EEG gain matrix of a source space.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	lvl, ok := levels[strings.ToLower(*level)]
	if !ok {
		return fmt.Errorf("unknown log level %q", *level)
	}
	logger := archivist.New(&archivist.Config{Logger: log.New(stderr, "", 0), LogLevel: lvl, DebugLevel: archivist.DEBUG_LEVEL_INFO})

	switch {
	case *listModels:
		return printModels(stdout, *modelsPath)
	case *runsDB != "":
		return printRuns(ctx, stdout, *runsDB)
	case *settingsPath == "":
		fs.Usage()
		return errors.New("-settings is required")
	}

	if err := compute(ctx, *settingsPath, logger); err != nil {
		logger.Error(err.Error())
		return err
	}

	return nil
}

// compute loads every input named by the settings file and runs the pipeline.
func compute(ctx context.Context, settingsPath string, logger *archivist.Archivist) error {
	raw, err := loader.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	spec, err := config.Resolve(raw)
	if err != nil {
		return err
	}
	dir := filepath.Dir(settingsPath)
	rel := func(name string) string {
		if name == "" || filepath.IsAbs(name) || name == ":memory:" {
			return name
		}
		return filepath.Join(dir, name)
	}
	logger.InfoF("settings %s: meg=%t eeg=%t bem=%t accurate=%t", settingsPath,
		spec.IncludeMEG(), spec.IncludeEEG(), spec.UsesBEM(), spec.Accurate())

	var in forward.Inputs
	if in.Source, err = loader.LoadSourceSpace(rel(spec.SourceSpaceName())); err != nil {
		return err
	}
	if in.Sensors, err = loader.LoadSensors(rel(spec.MeasurementName())); err != nil {
		return err
	}
	if spec.UsesBEM() {
		if in.Geometry, err = loader.LoadGeometry(rel(spec.BEMName())); err != nil {
			return err
		}
	}
	if !spec.MRIHeadIdentity() {
		name := spec.TransformName()
		if name == "" {
			name = spec.MRIName()
		}
		if in.Transform, err = loader.LoadTransform(rel(name)); err != nil {
			return err
		}
	}

	opts := []forward.Option{forward.WithLogger(logger)}
	if f := spec.EEG().ModelFile; f != "" {
		reg, err := loader.LoadSphereModels(rel(f))
		if err != nil {
			return err
		}
		opts = append(opts, forward.WithRegistry(reg))
	}

	st, err := store.Open(rel(spec.SolutionName()))
	if err != nil {
		return err
	}
	defer st.Close()
	opts = append(opts, forward.WithWriter(st))

	res, err := forward.Run(ctx, spec, in, opts...)
	if err != nil {
		return err
	}
	logger.InfoF("run %s stored in %s", res.Meta.RunID, spec.SolutionName())

	if out := spec.MindistOutName(); out != "" {
		if err = writeOmitted(rel(out), res.Omitted); err != nil {
			return err
		}
		logger.InfoF("%d omitted points written to %s", len(res.Omitted), out)
	}

	return nil
}

// writeOmitted lists the dropped points, one per line, positions and
// distances in millimetres.
func writeOmitted(path string, omitted []sourcespace.Omitted) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mindistout: %w", err)
	}
	w := tabwriter.NewWriter(f, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "# vertex\tx/mm\ty/mm\tz/mm\tdist/mm\treason")
	for _, o := range omitted {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.3f\t%.3f\t%s\n",
			o.Index, 1e3*o.Pos.X, 1e3*o.Pos.Y, 1e3*o.Pos.Z, 1e3*o.Distance, o.Reason)
	}
	if err = w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("mindistout: %w", err)
	}

	return f.Close()
}

func printModels(stdout io.Writer, path string) error {
	reg := headmodel.NewRegistry()
	if path != "" {
		var err error
		if reg, err = loader.LoadSphereModels(path); err != nil {
			return err
		}
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tLAYERS (rel:sigma)")
	for _, name := range reg.Names() {
		m, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		parts := make([]string, len(m.Layers))
		for i, l := range m.Layers {
			parts[i] = fmt.Sprintf("%.3g:%.3g", l.Rel, l.Sigma)
		}
		fmt.Fprintf(w, "%s\t%s\n", m.Name, strings.Join(parts, " "))
	}

	return w.Flush()
}

func printRuns(ctx context.Context, stdout io.Writer, dsn string) error {
	st, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer st.Close()
	runs, err := st.Runs(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tMETHOD\tGAIN\tSOLUTION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Method, r.Rows, r.Cols, r.Solution)
	}

	return w.Flush()
}
