// whitted renders YAML scene files with a recursive ray tracer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"row-major/whitted/rgbimage"
	"row-major/whitted/scenepack"
	"row-major/whitted/tracer"
	"row-major/whitted/tracestats"

	"cloud.google.com/go/profiler"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var cmdRoot = &cobra.Command{
	Use: "whitted",
}

var (
	monitoring           bool
	monitoringProject    string
	monitoringTraceRatio float64
	enableMetrics        bool
	enableProfiling      bool
)

func init() {
	// Expose glog's flags (-v, -logtostderr, ...) on every command.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	cmdRoot.PersistentFlags().BoolVar(&monitoring, "monitoring", false, "Export traces to Cloud Trace?")
	cmdRoot.PersistentFlags().StringVar(&monitoringProject, "monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	cmdRoot.PersistentFlags().Float64Var(&monitoringTraceRatio, "monitoring-trace-ratio", 1.0, "What ratio of traces should be exported?")
	cmdRoot.PersistentFlags().BoolVar(&enableMetrics, "enable-metrics", false, "Export ray counts to Cloud Monitoring?")
	cmdRoot.PersistentFlags().BoolVar(&enableProfiling, "enable-profiling", false, "Run the Cloud Profiler agent?")
}

var (
	renderScene      string
	renderOutput     string
	renderWidth      int
	renderHeight     int
	renderMaxBounces int
	renderShadows    bool
	renderWorkers    int
	renderCPUProfile string
	renderMemProfile string
)

func init() {
	cmdRender.Flags().StringVar(&renderScene, "scene", "", "Scene file to render (local path or gs://bucket/object)")
	cmdRender.Flags().StringVar(&renderOutput, "output", "output.png", "Where to write the image.  A .rgbf suffix selects the raw float format.")
	cmdRender.Flags().IntVar(&renderWidth, "width", 0, "Override the image width from the scene file")
	cmdRender.Flags().IntVar(&renderHeight, "height", 0, "Override the image height from the scene file")
	cmdRender.Flags().IntVar(&renderMaxBounces, "max-bounces", -1, "Override the maximum number of mirror bounces from the scene file")
	cmdRender.Flags().BoolVar(&renderShadows, "shadows", true, "Cast shadow rays (overrides the scene file when set)")
	cmdRender.Flags().IntVar(&renderWorkers, "workers", 0, "Number of render workers; 0 means one per CPU")
	cmdRender.Flags().StringVar(&renderCPUProfile, "cpu-profile", "", "write cpu profile to `file`")
	cmdRender.Flags().StringVar(&renderMemProfile, "mem-profile", "", "write memory profile to `file`")
	cmdRender.MarkFlagRequired("scene")
}

var cmdRender = &cobra.Command{
	Use:   "render",
	Short: "Render a scene file to an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		shutdown, err := startMonitoring()
		if err != nil {
			return err
		}
		defer shutdown()

		if renderCPUProfile != "" {
			f, err := os.Create(renderCPUProfile)
			if err != nil {
				return fmt.Errorf("while creating CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("while starting CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		if err := doRender(ctx, cmd); err != nil {
			return err
		}

		if renderMemProfile != "" {
			f, err := os.Create(renderMemProfile)
			if err != nil {
				return fmt.Errorf("while creating memory profile: %w", err)
			}
			defer f.Close()
			if err := pprof.WriteHeapProfile(f); err != nil {
				return fmt.Errorf("while writing memory profile: %w", err)
			}
		}

		return nil
	},
}

func doRender(ctx context.Context, cmd *cobra.Command) error {
	pack, err := scenepack.Load(ctx, renderScene)
	if err != nil {
		return fmt.Errorf("while loading scene: %w", err)
	}

	if renderWidth > 0 {
		pack.Settings.Width = renderWidth
	}
	if renderHeight > 0 {
		pack.Settings.Height = renderHeight
	}
	if renderMaxBounces >= 0 {
		pack.Settings.MaxBounces = renderMaxBounces
	}
	if cmd.Flags().Changed("shadows") {
		pack.Settings.Shadows = renderShadows
	}

	glog.Infof("flags:")
	glog.Infof("scene: %q", renderScene)
	glog.Infof("output: %q", renderOutput)
	glog.Infof("size: %dx%d", pack.Settings.Width, pack.Settings.Height)
	glog.Infof("max-bounces: %d", pack.Settings.MaxBounces)
	glog.Infof("shadows: %v", pack.Settings.Shadows)

	opts, err := pack.Options(ctx)
	if err != nil {
		return err
	}
	opts.Workers = renderWorkers

	t, err := tracer.New(opts)
	if err != nil {
		return fmt.Errorf("while configuring tracer: %w", err)
	}

	if _, err := t.Render(ctx, pack.Scene, renderOutput); err != nil {
		return fmt.Errorf("while rendering: %w", err)
	}
	return nil
}

var inspectImage string

func init() {
	cmdInspect.Flags().StringVar(&inspectImage, "image", "", "Image to inspect (.png or .rgbf, local path or gs://bucket/object)")
	cmdInspect.MarkFlagRequired("image")
}

var cmdInspect = &cobra.Command{
	Use:   "inspect",
	Short: "Print the size and average color of an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		im, err := rgbimage.Load(ctx, inspectImage)
		if err != nil {
			return fmt.Errorf("while loading image: %w", err)
		}

		avg := im.Average()
		fmt.Fprintf(cmd.OutOrStdout(), "size: %dx%d\n", im.Width, im.Height)
		fmt.Fprintf(cmd.OutOrStdout(), "average: %g %g %g\n", avg[0], avg[1], avg[2])
		return nil
	},
}

// startMonitoring installs whichever exporters the global flags ask for.  The
// returned function flushes and stops them.
func startMonitoring() (func(), error) {
	shutdowns := []func(){}
	shutdown := func() {
		for i := len(shutdowns) - 1; i >= 0; i-- {
			shutdowns[i]()
		}
	}

	// Cloud Profiler initialization, best done as early as possible.
	if enableProfiling {
		if err := profiler.Start(profiler.Config{
			Service:        "whitted",
			ServiceVersion: "0.0.1",
			ProjectID:      monitoringProject,
		}); err != nil {
			return shutdown, fmt.Errorf("while starting profiler: %w", err)
		}
	}

	if monitoring {
		traceOpts := []cloudtrace.Option{}
		if monitoringProject != "" {
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(monitoringProject))
		}

		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(monitoringTraceRatio)))
		if err != nil {
			return shutdown, fmt.Errorf("while installing Cloud Trace pipeline: %w", err)
		}
		shutdowns = append(shutdowns, traceShutdown)
	}

	if enableMetrics {
		if err := tracestats.RegisterViews(); err != nil {
			return shutdown, fmt.Errorf("while registering views: %w", err)
		}

		exporter, err := stackdriver.NewExporter(stackdriver.Options{
			ProjectID:         monitoringProject,
			MetricPrefix:      "whitted",
			ReportingInterval: 60 * time.Second,
		})
		if err != nil {
			return shutdown, fmt.Errorf("while creating Stackdriver exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return shutdown, fmt.Errorf("while starting metrics exporter: %w", err)
		}
		shutdowns = append(shutdowns, func() {
			exporter.StopMetricsExporter()
			exporter.Flush()
		})
	}

	return shutdown, nil
}

func main() {
	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	cmdRoot.AddCommand(cmdRender, cmdInspect)

	// glog complains about logging before flag.Parse; pflag fills in the
	// values of the Go flags itself.
	flag.CommandLine.Parse([]string{})

	if err := cmdRoot.Execute(); err != nil {
		glog.Errorf("Error: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}
