// Command palmcli runs the full palm reading pipeline on a single
// photo: load, hand screening, line extraction, features, reading, and
// an annotated overlay plus the analysis record written to a store
// directory the correction tools can open later.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"palm-reader/internal/detect"
	"palm-reader/internal/features"
	"palm-reader/internal/imageio"
	"palm-reader/internal/landmark"
	"palm-reader/internal/overlay"
	"palm-reader/internal/pipeline"
	"palm-reader/internal/reading"
	"palm-reader/internal/store"
	"palm-reader/pkg/geometry"
	"palm-reader/pkg/llm"
	"palm-reader/pkg/log"
)

func main() {
	imagePath := flag.String("image", "", "Path to the palm photo (JPEG, PNG, TIFF or BMP)")
	landmarkPath := flag.String("landmarks", "", "Landmark JSON file, skips the landmark service")
	outDir := flag.String("out", "out", "Output directory for images and analysis data")
	skipValidation := flag.Bool("skip-validation", false, "Disable the palm size and openness gates")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: palmcli -image <path> [-landmarks lm.json] [-out dir] [-skip-validation]")
		os.Exit(1)
	}

	_ = godotenv.Load()
	logger := log.NewLogger()

	totalStart := time.Now()

	// Load and normalize
	t0 := time.Now()
	fmt.Printf("Loading image: %s\n", *imagePath)
	original, err := imageio.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer original.Close()

	processed := imageio.ResizeHeight(original, imageio.TargetHeight)
	defer processed.Close()
	width := processed.Cols()
	height := processed.Rows()
	fmt.Printf("Image scaled to %dx%d (%.4fs)\n", width, height, time.Since(t0).Seconds())

	// Hand screening
	t1 := time.Now()
	fmt.Println("Detecting hand...")
	var provider landmark.Provider
	if *landmarkPath != "" {
		provider = landmark.NewFileProvider(*landmarkPath)
	} else {
		serviceURL := os.Getenv("LANDMARK_SERVICE_URL")
		if serviceURL == "" {
			fmt.Fprintln(os.Stderr, "Set LANDMARK_SERVICE_URL or pass -landmarks with a landmark file")
			os.Exit(1)
		}
		provider = landmark.NewHTTPProvider(serviceURL)
	}

	frame, err := imageio.EncodeJPEG(processed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode frame: %v\n", err)
		os.Exit(1)
	}
	hands, err := provider.Detect(context.Background(), frame)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Landmark detection failed: %v\n", err)
		os.Exit(1)
	}

	opts := detect.DefaultOptions()
	if *skipValidation {
		opts.MinAreaRatio = 0
		opts.ExtensionMin = 0
	}
	hand, err := detect.Screen(hands, width, height, opts)
	if err != nil {
		if code := detect.Code(err); code != 0 {
			fmt.Printf("Screening failed (code %d): %v\n", code, err)
		} else {
			fmt.Fprintf(os.Stderr, "Hand screening failed: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("Detected %s hand, score %.2f (%.4fs)\n", hand.Handedness, hand.Score, time.Since(t1).Seconds())
	if hand.NearBorder {
		fmt.Println("Warning: hand is close to the frame edge, the palm may be cut off")
	}

	// Line extraction
	t2 := time.Now()
	fmt.Println("Extracting palm lines...")
	extractor := pipeline.NewExtractor(pipeline.DefaultOptions(), logger)
	roi := processed.Region(image.Rect(
		hand.Region.X, hand.Region.Y,
		hand.Region.X+hand.Region.Width, hand.Region.Y+hand.Region.Height,
	))
	results, err := extractor.ExtractLines(roi, hand.Local[:])
	roi.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Line extraction failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Extraction done (%.4fs)\n", time.Since(t2).Seconds())

	rec := store.NewAnalysis()
	rec.Width = width
	rec.Height = height
	rec.Region = hand.Region
	rec.Hand = store.HandInfo{
		Label:      hand.Handedness,
		Score:      hand.Score,
		NearBorder: hand.NearBorder,
	}
	rec.Features = features.Extract(results, hand.Region.Width, hand.Region.Height, logger)

	origin := geometry.PointInt{X: hand.Region.X, Y: hand.Region.Y}
	rec.Lines = make(map[pipeline.Category][][]geometry.PointInt, len(results))
	for _, cat := range pipeline.Categories() {
		res := results[cat]
		if len(res.Points) > 0 && res.Confidence > overlay.MinConfidence {
			fmt.Printf("  %-6s confidence %.2f, %d points\n", cat, res.Confidence, len(res.Points))
			full := overlay.Translate(res.Points, origin)
			rec.Lines[cat] = [][]geometry.PointInt{overlay.Simplify(full, overlay.ExportEpsilon)}
		} else {
			fmt.Printf("  %-6s not detected or confidence too low\n", cat)
			rec.Lines[cat] = [][]geometry.PointInt{}
		}
	}

	// Reading
	var chat llm.IChatClient
	if llm.Configured() {
		chat = llm.NewChatClient()
	}
	report, source := reading.NewAnalyzer(chat, logger).Analyze(context.Background(), rec.Features)
	fmt.Printf("\nReading (%s):\n", source)
	for _, cat := range pipeline.Categories() {
		lr := report[cat]
		fmt.Printf("  %-6s %s; %s\n", cat, lr.Feature, lr.Reading)
	}

	// Persist
	t3 := time.Now()
	st, err := store.Open(*outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open output directory: %v\n", err)
		os.Exit(1)
	}

	rec.CleanImage = store.CleanImageName(rec.ID)
	if err := imageio.Save(st.ImagePath(rec.CleanImage), processed); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save clean image: %v\n", err)
		os.Exit(1)
	}

	annotated := processed.Clone()
	overlay.Annotate(&annotated, hand, results)
	rec.ResultImage = store.ResultImageName(rec.ID)
	err = imageio.Save(st.ImagePath(rec.ResultImage), annotated)
	annotated.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save result image: %v\n", err)
		os.Exit(1)
	}

	if err := st.Save(rec); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save analysis: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nResult image:  %s\n", st.ImagePath(rec.ResultImage))
	fmt.Printf("Analysis data: %s\n", filepath.Join(*outDir, "analyses", rec.ID+".json"))
	fmt.Printf("Total %.4fs (save %.4fs)\n", time.Since(totalStart).Seconds(), time.Since(t3).Seconds())
}
