package collage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/esimov/collage/utils"
	"golang.org/x/term"
)

// ErrNoDestination is returned when a directory of scenes is exported
// without a destination directory.
var ErrNoDestination = errors.New("a destination directory is required when the source is a directory")

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// sceneExt is the extension of the scene files picked up in directory mode.
const sceneExt = ".toml"

// Ops describes a batch export: the source is a scene file, the pipe name or
// a directory of scene files, and the destination is an image file, the pipe
// name or a directory.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int

	// Override is called on every loaded scene, so that command line flags
	// take precedence over the values of the file.
	Override func(*Config)
	// Stderr receives the progress and status output. Defaults to os.Stderr.
	Stderr io.Writer

	out     io.Writer
	spinner *utils.Spinner
}

// result holds the relevant information about the export of a scene.
type result struct {
	path string
	err  error
}

// syncWriter serializes writes coming from the spinner and the workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Execute exports the scenes described by the operation. In directory mode
// the scenes are exported concurrently and every failure is reported in the
// returned error.
func (op *Ops) Execute(ctx context.Context) error {
	var (
		fs  os.FileInfo
		err error
	)
	stderr := op.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	op.out = &syncWriter{w: stderr}

	msg := fmt.Sprintf("%s %s",
		utils.DecorateText("▣ COLLAGE", utils.StatusMessage),
		utils.DecorateText("⇢ exporting the composition...", utils.DefaultMessage),
	)
	op.spinner = utils.NewSpinnerWriter(op.out, msg, time.Millisecond*80, op.Stderr == nil)
	defer op.spinner.RestoreCursor()

	// Check if the source is a pipe name or a regular file.
	if op.Src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(op.Src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the scene: %w", err)
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		if op.Dst == op.PipeName {
			return errors.New("a directory of scenes cannot be exported to a pipe")
		}
		if op.Dst == "" {
			return ErrNoDestination
		}
		if _, err := os.Stat(op.Dst); err != nil {
			if err := os.MkdirAll(op.Dst, 0755); err != nil {
				return fmt.Errorf("unable to create the destination directory: %w", err)
			}
		}

		// Limit the concurrently running workers to maxWorkers.
		workers := op.Workers
		if workers <= 0 || workers > maxWorkers {
			workers = utils.Min(runtime.NumCPU(), maxWorkers)
		}

		ch := make(chan result)
		done := make(chan struct{})
		defer close(done)

		paths, errc := walkDir(done, op.Src, []string{sceneExt})

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				op.consumer(ctx, ch, done, paths)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		var errs []error
		for res := range ch {
			if res.err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", res.path, res.err))
			}
			op.printOpStatus(res.path, res.err)
		}
		if err := <-errc; err != nil {
			errs = append(errs, err)
		}
		err = errors.Join(errs...)

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		err = op.process(ctx, op.Src, op.Dst)
		op.printOpStatus(op.Dst, err)

	default:
		return fmt.Errorf("unsupported scene source: %s", op.Src)
	}

	if err == nil {
		fmt.Fprintf(op.out, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	return err
}

// consumer reads the scene paths from the paths channel, exports each of them
// into the destination directory and sends the outcome on the res channel.
func (op *Ops) consumer(
	ctx context.Context,
	res chan<- result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + filepath.Ext(DefaultFilename)
		err := op.process(ctx, src, filepath.Join(op.Dst, name))

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// process loads a single scene, replays it onto a new composition and exports it.
// An empty destination falls back to the output configured in the scene.
func (op *Ops) process(ctx context.Context, in, out string) error {
	cfg, err := op.loadScene(in)
	if err != nil {
		return err
	}
	if op.Override != nil {
		op.Override(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if out == "" {
		out = cfg.Output
	}

	ctrl := NewController()
	if err := cfg.Apply(ctrl); err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	exp := NewExporter(cfg.Renderer(), opts)

	op.spinner.Start()
	defer op.spinner.Stop()

	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		_, err = exp.ExportTo(ctx, ctrl.Snapshot(), os.Stdout, FormatPNG)
		return err
	}
	_, err = exp.ExportFile(ctx, ctrl.Snapshot(), out)
	return err
}

// loadScene reads the scene from a file or, for the pipe name, from stdin.
func (op *Ops) loadScene(in string) (Config, error) {
	if in != op.PipeName {
		return LoadConfig(in)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return Config{}, errors.New("`-` should be used with a pipe for stdin")
	}
	wd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	return DecodeConfig(os.Stdin, wd)
}

// printOpStatus displays the relevant information about the export of a scene.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(op.out, "%s%s",
			utils.DecorateText("\nError exporting the scene: "+fname, utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(op.out, "\nThe scene has been exported: %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan struct{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if !utils.Contains(srcExts, strings.ToLower(filepath.Ext(f.Name()))) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}
