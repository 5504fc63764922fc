package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/esimov/collage"
	"github.com/esimov/collage/editor"
	"github.com/esimov/collage/utils"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┌─┐┬  ┬  ┌─┐┌─┐┌─┐
│  │ ││  │  ├─┤│ ┬├┤
└─┘└─┘┴─┘┴─┘┴ ┴└─┘└─┘

Image composition and high resolution export.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Scene file or directory of scene files")
	destination = flag.String("out", "", "Destination image, or directory when the source is a directory (required then)")
	resolution  = flag.String("res", collage.DefaultPreset.Name, "Export resolution: "+strings.Join(collage.PresetNames(), ", "))
	highQuality = flag.Bool("hq", true, "High quality resampling")
	quality     = flag.Int("quality", collage.QualityLanczos, "Resampling quality (0: box, 1: hamming, 2: catmull-rom, 3: lanczos)")
	amount      = flag.Float64("amount", collage.DefaultUnsharpMask.Amount, "Unsharp mask amount in percent (0 disables sharpening)")
	radius      = flag.Float64("radius", collage.DefaultUnsharpMask.Radius, "Unsharp mask radius")
	threshold   = flag.Uint("threshold", uint(collage.DefaultUnsharpMask.Threshold), "Unsharp mask threshold")
	vpWidth     = flag.Int("vw", collage.DefaultViewportWidth, "Viewport width")
	vpHeight    = flag.Int("vh", collage.DefaultViewportHeight, "Viewport height")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of scenes to export concurrently")
	interactive = flag.Bool("i", false, "Open the interactive editor")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *interactive {
		cfg := collage.DefaultConfig()
		if *source != pipeName {
			var err error
			if cfg, err = collage.LoadConfig(*source); err != nil {
				log.Fatalf(utils.DecorateText("Failed to load the scene: %v", utils.ErrorMessage), err)
			}
		}
		overrideFlags(&cfg)
		if err := cfg.Validate(); err != nil {
			log.Fatalf(utils.DecorateText("Invalid options: %v", utils.ErrorMessage), err)
		}
		if err := editor.Run(ctx, cfg, *destination); err != nil {
			log.Fatalf(utils.DecorateText("Editor error: %v", utils.ErrorMessage), err)
		}
		return
	}

	if *source == pipeName && term.IsTerminal(int(os.Stdin.Fd())) {
		flag.Usage()
		log.Fatal(utils.DecorateText("\nPlease provide a scene file, a directory of scenes or pipe a scene through stdin!", utils.ErrorMessage))
	}

	op := &collage.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
		Override: overrideFlags,
	}
	if err := op.Execute(ctx); err != nil {
		log.Fatalf("%s%s",
			utils.DecorateText("\nThe export failed: ", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
}

// overrideFlags copies the explicitly set flags over the scene configuration.
func overrideFlags(cfg *collage.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "res":
			cfg.Resolution = *resolution
		case "hq":
			cfg.HighQuality = *highQuality
		case "quality":
			cfg.Filter.Quality = *quality
		case "amount":
			cfg.Filter.Unsharp.Amount = *amount
		case "radius":
			cfg.Filter.Unsharp.Radius = *radius
		case "threshold":
			cfg.Filter.Unsharp.Threshold = uint8(utils.Min(*threshold, 255))
		case "vw":
			cfg.Viewport.Width = *vpWidth
		case "vh":
			cfg.Viewport.Height = *vpHeight
		}
	})
}
