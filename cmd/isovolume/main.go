package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/config"
	"isovolume/pkg/engine"
	"isovolume/pkg/filter"
	"isovolume/pkg/interpolation"
	"isovolume/pkg/meshbuf"
	"isovolume/pkg/stl"
	"isovolume/pkg/synth"
	"isovolume/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "isovolume.yaml", "YAML configuration file (missing file means defaults)")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	input := flag.String("input", "", "Raw volume file (Name_X_Y_Z.raw)")
	model := flag.String("model", "", "Catalog model to load when no -input is given")
	dimX := flag.Int("x", 0, "Samples along x (default: parsed from the file name)")
	dimY := flag.Int("y", 0, "Samples along y (default: parsed from the file name)")
	dimZ := flag.Int("z", 0, "Samples along z (default: parsed from the file name)")
	cuts := flag.Int("cuts", 0, "Resampled lattice points per axis")
	native := flag.Bool("native", false, "March the raw samples without resampling")
	level := flag.String("level", "", "Iso-level in [0,1], or auto")
	border := flag.String("border", "", "Volume border handling: closed or open")
	workers := flag.Int("workers", 0, "Number of goroutines marching cells")
	smooth := flag.Float64("smooth", 0, "Gaussian pre-smoothing sigma in voxels (0 disables)")
	output := flag.String("output", "", "Output STL filename")
	ascii := flag.Bool("ascii", false, "Write ASCII STL instead of binary")
	buffer := flag.String("buffer", "", "Also write the interleaved float32 vertex buffer to this file")
	preview := flag.String("preview", "", "Also render a shaded PNG preview to this file")
	histogram := flag.String("histogram", "", "Also plot the intensity histogram to this file")
	extractSlices := flag.Bool("extract-slices", false, "Extract and save volume slices along all axes")
	slicesDir := flag.String("slices-dir", "", "Directory to save extracted slices")
	synthShape := flag.String("synth", "", fmt.Sprintf("Generate a phantom volume instead of loading one %v", synth.Shapes()))
	synthSize := flag.Int("synth-size", 64, "Samples per axis of the generated phantom")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given explicitly take precedence over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Volume.Path = *input
		case "model":
			cfg.Volume.Model = *model
			cfg.Volume.Path = ""
		case "x":
			cfg.Volume.X = *dimX
		case "y":
			cfg.Volume.Y = *dimY
		case "z":
			cfg.Volume.Z = *dimZ
		case "cuts":
			cfg.Extraction.Cuts = *cuts
		case "native":
			cfg.Extraction.Native = *native
		case "level":
			cfg.Extraction.Level = *level
		case "border":
			cfg.Extraction.Border = *border
		case "workers":
			cfg.Extraction.Workers = *workers
		case "smooth":
			cfg.Extraction.Smooth = *smooth
		case "output":
			cfg.Output.STL = *output
		case "ascii":
			cfg.Output.ASCII = *ascii
		case "buffer":
			cfg.Output.Buffer = *buffer
		case "preview":
			cfg.Output.Preview = *preview
		case "histogram":
			cfg.Output.Histogram = *histogram
		case "slices-dir":
			cfg.Output.SlicesDir = *slicesDir
		}
	})

	fmt.Println("================================")
	fmt.Println("ISOSURFACE EXTRACTION WITH MARCHING CUBES")
	fmt.Println("================================")

	if *synthShape != "" {
		fmt.Printf("Generating %s phantom (%d^3)...\n", *synthShape, *synthSize)
		shape, err := synth.Shape(*synthShape)
		if err != nil {
			log.Fatalf("Failed to build phantom: %v", err)
		}
		n := *synthSize
		dir := filepath.Dir(cfg.Output.STL)
		path, err := synth.WriteRaw(dir, "Phantom"+strconv.Itoa(n), synth.Sample(shape, n, n, n), n, n, n)
		if err != nil {
			log.Fatalf("Failed to write phantom: %v", err)
		}
		cfg.Volume.Path = path
		cfg.Volume.X, cfg.Volume.Y, cfg.Volume.Z = n, n, n
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	vol, err := cfg.ResolveVolume()
	if err != nil {
		log.Fatalf("Failed to resolve volume: %v", err)
	}
	borderMode, _ := interpolation.ParseBorder(cfg.Extraction.Border)
	isoLevel, autoLevel, _ := cfg.ParseLevel()
	if cfg.Extraction.Native && borderMode == interpolation.BorderClosed {
		log.Printf("Warning: -border closed has no effect with -native; surfaces stay open at the volume boundary")
	}

	params := &engine.Params{
		Workers: cfg.Extraction.Workers,
		Border:  borderMode,
		Verbose: cfg.Output.Verbose,
	}
	e := engine.New(params)
	defer e.Release()

	startTime := time.Now()

	// Step 1: Load the raw volume
	fmt.Println("Step 1: Loading volume...")
	if err := e.LoadModel(vol.Model.Path, vol.Model.X, vol.Model.Y, vol.Model.Z); err != nil {
		log.Fatalf("Failed to load %s: %v", vol.Model, err)
	}
	if cfg.Extraction.Smooth > 0 {
		fmt.Printf("Smoothing volume (sigma %.2f voxels)...\n", cfg.Extraction.Smooth)
		smoothed, err := filter.Gaussian(e.Field(), cfg.Extraction.Smooth)
		if err != nil {
			log.Fatalf("Smoothing failed: %v", err)
		}
		if err := e.LoadField(smoothed); err != nil {
			log.Fatalf("Failed to load smoothed volume: %v", err)
		}
	}
	field := e.Field()

	// Step 2: Describe the intensity distribution and settle the level
	fmt.Println("Step 2: Computing volume statistics...")
	stats := field.Stats()
	fmt.Printf("Intensity range %d..%d, mean %.2f, stddev %.2f, median %.0f, entropy %.3f bits\n",
		stats.Min, stats.Max, stats.Mean, stats.StdDev, stats.Median, stats.Entropy)
	if autoLevel {
		isoLevel = field.OtsuLevel()
		fmt.Printf("Automatic iso-level (Otsu): %.3f\n", isoLevel)
	}
	if cfg.Output.Histogram != "" {
		if err := visualization.SaveHistogram(field, cfg.Output.Histogram, 64, isoLevel); err != nil {
			log.Printf("Warning: Failed to save histogram: %v", err)
		} else {
			fmt.Printf("Histogram saved to: %s\n", cfg.Output.Histogram)
		}
	}

	// Step 3: Build the cell grid
	fmt.Println("Step 3: Building cell grid...")
	if cfg.Extraction.Native {
		err = e.UseNativeResolution()
	} else {
		err = e.SetResolution(cfg.Extraction.Cuts)
	}
	if err != nil {
		log.Fatalf("Failed to set resolution: %v", err)
	}

	// Step 4: March the cells
	fmt.Printf("Step 4: Triangulating at level %.3f with %d workers...\n", isoLevel, cfg.Extraction.Workers)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	mesh, err := e.Triangulate(ctx, isoLevel)
	if err != nil {
		log.Fatalf("Triangulation failed: %v", err)
	}
	processingTime := time.Since(startTime)

	// Step 5: Export
	fmt.Println("Step 5: Exporting surface...")
	mm := r3.Vec{
		X: float64(vol.Model.X) * vol.VoxelSize.X,
		Y: float64(vol.Model.Y) * vol.VoxelSize.Y,
		Z: float64(vol.Model.Z) * vol.VoxelSize.Z,
	}
	opts := stl.Options{Scale: mm, ASCII: cfg.Output.ASCII, Name: vol.Model.Name}
	if err := stl.SaveToSTL(cfg.Output.STL, mesh, opts); err != nil {
		log.Fatalf("Failed to save STL: %v", err)
	}

	if cfg.Output.Buffer != "" {
		if err := writeBuffer(cfg.Output.Buffer, meshbuf.Interleave(mesh)); err != nil {
			log.Printf("Warning: Failed to save vertex buffer: %v", err)
		} else {
			fmt.Printf("Vertex buffer saved to: %s\n", cfg.Output.Buffer)
		}
	}

	if cfg.Output.Preview != "" {
		if err := visualization.SavePreview(mesh, cfg.Output.Preview, visualization.DefaultPreviewOptions()); err != nil {
			log.Printf("Warning: Failed to render preview: %v", err)
		} else {
			fmt.Printf("Preview saved to: %s\n", cfg.Output.Preview)
		}
	}

	ms := mesh.Stats()
	fmt.Printf("\nExtraction completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Output 3D model saved to: %s\n\n", cfg.Output.STL)

	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("=======================================\n")
	fmt.Printf("Volume: %s\n", vol.Model)
	fmt.Printf("Iso-level (clamped): %.3f\n", mesh.Level)
	fmt.Printf("Triangles: %d\n", ms.Triangles)
	fmt.Printf("Shared vertices: %d\n", ms.Vertices)
	fmt.Printf("Surface area (unit cube): %.4f\n", ms.Area)
	fmt.Printf("Bounds: (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		ms.Min.X, ms.Min.Y, ms.Min.Z, ms.Max.X, ms.Max.Y, ms.Max.Z)
	if ms.Triangles == 0 {
		log.Printf("Warning: no surface crosses level %.3f; try another -level", mesh.Level)
	}

	// Extract and save slices if requested
	if *extractSlices {
		fmt.Println("\nExtracting volume slices along all axes...")

		voxel := r3.Vec{X: vol.VoxelSize.X, Y: vol.VoxelSize.Y, Z: vol.VoxelSize.Z}
		viewer := visualization.NewViewer(field, voxel)

		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(cfg.Output.SlicesDir, axis)
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)

			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			}
		}

		fmt.Println("Slice extraction completed!")
	}
}

// writeBuffer validates and stores an interleaved vertex buffer.
func writeBuffer(path string, buf []float32) error {
	if err := meshbuf.Validate(buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := meshbuf.Write(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
