/*
Package collage is a small image composition library. Text labels and raster
images are placed, moved, resized and stacked on a viewport, and the visible
composition is exported at a fixed resolution (4K, 1080p or 720p): the capture
is scaled to cover the whole target, centered and cropped, optionally resampled
with a high quality filter and an unsharp mask, and composited onto a white canvas.

The package provides a command line interface which exports TOML scene files
and an interactive terminal editor. To check the supported commands type:

	$ collage --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"context"
		"log"

		"github.com/esimov/collage"
	)

	func main() {
		ctrl := collage.NewController()
		ctrl.SetInput("Hello")
		ctrl.AddText()
		if err := ctrl.AddImageFile("photo.jpg"); err != nil {
			log.Fatal(err)
		}

		r := collage.NewRenderer(collage.DefaultViewportWidth, collage.DefaultViewportHeight, collage.DefaultFontSize)
		exp := collage.NewExporter(r, collage.DefaultOptions())
		if _, err := exp.ExportFile(context.Background(), ctrl.Snapshot(), collage.DefaultFilename); err != nil {
			log.Fatalf("Error exporting the composition: %v", err)
		}
	}
*/
package collage
