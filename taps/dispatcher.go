// Package taps contains the filesystem taps which feed the images of a directory to an obfuscate.Engine.
//
// FileTap processes the existing images once, DirectoryTap polls the source directory and
// NotifyTap subscribes to the filesystem events.
package taps

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/imageio"
	"github.com/xitonix/xmask/logging"
	"github.com/xitonix/xmask/obfuscate"
)

const (
	outputMetadataKey     = "output"
	inputMetadataKey      = "input"
	outputFullMetadataKey = "output_full_path"
	inputFullMetadataKey  = "input_full_path"

	defaultPollingInterval = time.Second
)

// File file
type File struct {
	// Name file name
	Name string
	// Path file full path
	Path string
}

// Result represents the progress details of a task
type Result struct {
	// Status the status of the operation
	Status obfuscate.Status
	// Error the error details of a failed task
	Error error
	// Input input file
	Input File
	// Output output file
	Output File
}

// Config the settings shared by the filesystem taps
type Config struct {
	// Source the directory to read the images from. It will get created if it doesn't exist.
	Source string
	// Target the directory to write the results into. The sub-directories of the source are mirrored.
	Target string
	// Mode obfuscate.Encode to obfuscate the images, obfuscate.Decode to reveal them
	Mode obfuscate.Operation
	// Areas the regions to obfuscate in every image (Encode mode)
	Areas []geometry.Rect
	// Options the obfuscation settings (Encode mode)
	Options obfuscate.Options
	// DecodeOptions the reveal settings (Decode mode)
	DecodeOptions obfuscate.DecodeOptions
	// Format the format of the output files. imageio.Auto keeps the input format whenever it is lossless.
	Format imageio.Format
	// DeleteCompleted removes the input files which have been processed successfully
	DeleteCompleted bool
	// NotifyErrors publishes the failures on the Errors channel.
	// You need to read off the channel, otherwise the tap gets blocked.
	NotifyErrors bool
	// ReportProgress publishes a Result on the Progress channel whenever a file is queued or processed.
	// You need to read off the channel, otherwise the tap gets blocked.
	ReportProgress bool
	// PollingInterval how often the watchers look for ready files
	PollingInterval time.Duration
	// QuietPeriod how long a new file must stay untouched before it is processed
	QuietPeriod time.Duration
	// Log the logger. Nil disables logging.
	Log logging.Logger
}

// dispatcher turns the files of the source directory into work units.
// It is shared by all the filesystem taps.
type dispatcher struct {
	cfg            Config
	source, target string
	log            logging.Logger

	pipe     chan *obfuscate.WorkUnit
	errors   chan error
	progress chan *Result
	done     chan obfuscate.None

	// guards the channels against late callbacks
	chMux  sync.RWMutex
	closed bool

	// called once the engine has finished a dispatched work unit
	onFinish func()
}

func newDispatcher(cfg Config) (*dispatcher, error) {
	src, err := createDirIfNotExist(cfg.Source)
	if err != nil {
		return nil, err
	}

	tg, err := createDirIfNotExist(cfg.Target)
	if err != nil {
		return nil, err
	}

	if src == tg {
		return nil, fmt.Errorf("%w: the source and the target must be different", ErrInvalidDirectory)
	}

	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = defaultPollingInterval
	}

	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}

	return &dispatcher{
		cfg:      cfg,
		source:   src,
		target:   tg,
		log:      log,
		pipe:     make(chan *obfuscate.WorkUnit),
		errors:   make(chan error),
		progress: make(chan *Result),
		done:     make(chan obfuscate.None),
	}, nil
}

// Errors returns a read-only channel on which you will receive the failure notifications.
//
// In order to receive the errors on the channel, you need to turn error notifications On by setting
// Config.NotifyErrors to true.
func (d *dispatcher) Errors() <-chan error {
	return d.errors
}

// Progress returns a read-only channel on which you will receive the progress report
//
// In order to receive progress report on the channel, you need to turn it On by setting
// Config.ReportProgress to true.
func (d *dispatcher) Progress() <-chan *Result {
	return d.progress
}

// Requests returns the channel from which the engine will receive the work units.
func (d *dispatcher) Requests() <-chan *obfuscate.WorkUnit {
	return d.pipe
}

// shutdown closes the channels. All the goroutines pushing into the pipe must have been stopped.
func (d *dispatcher) shutdown() {
	d.chMux.Lock()
	defer d.chMux.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.pipe)
	close(d.errors)
	close(d.progress)
}

func (d *dispatcher) reportError(err error) {
	d.log.Error(err)
	if !d.cfg.NotifyErrors {
		return
	}
	d.chMux.RLock()
	defer d.chMux.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.errors <- err:
	case <-d.done:
	}
}

func (d *dispatcher) reportProgress(r *Result) {
	if !d.cfg.ReportProgress {
		return
	}
	d.chMux.RLock()
	defer d.chMux.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.progress <- r:
	case <-d.done:
	}
}

// isIgnored returns true for hidden files and for the files inside the target directory
func (d *dispatcher) isIgnored(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	return path == d.target || strings.HasPrefix(path, d.target+string(filepath.Separator))
}

// walk visits the files which are currently in the source directory.
// It stops early once the tap is closed.
func (d *dispatcher) walk(visit func(path string, info os.FileInfo)) error {
	err := filepath.Walk(d.source, func(path string, info os.FileInfo, err error) error {
		select {
		case <-d.done:
			return errStopped
		default:
		}
		if err != nil {
			d.reportError(err)
			return nil
		}
		if info.IsDir() {
			if path != d.source && d.isIgnored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.isIgnored(path) {
			visit(path, info)
		}
		return nil
	})
	if err == errStopped {
		return nil
	}
	return err
}

func (d *dispatcher) outputPath(inputFullPath string, format imageio.Format) (string, error) {
	rel, err := filepath.Rel(d.source, filepath.Dir(inputFullPath))
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = ""
	}
	dir, err := createDirIfNotExist(filepath.Join(d.target, rel))
	if err != nil {
		return "", err
	}
	name := filepath.Base(inputFullPath)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + format.Extension()
	return filepath.Join(dir, name), nil
}

func (d *dispatcher) newTask(name string, input *os.File, output *os.File) *obfuscate.Task {
	if d.cfg.Mode == obfuscate.Decode {
		return obfuscate.NewDecodeTask(name, input, output, d.cfg.DecodeOptions)
	}
	return obfuscate.NewEncodeTask(name, input, output, d.cfg.Areas, d.cfg.Options)
}

// dispatch opens the input file, creates the output file and pushes the work unit into the pipe.
// It returns false if the file has not been dispatched.
func (d *dispatcher) dispatch(path string) bool {
	inputFullPath, err := filepath.Abs(path)
	if err != nil {
		d.reportError(fmt.Errorf("failed to resolve the path to '%s': %w", path, err))
		return false
	}

	inFormat, err := imageio.FormatFromPath(inputFullPath)
	if err != nil {
		d.log.Debugf("skipping %s: %s", inputFullPath, err)
		return false
	}
	format := d.cfg.Format.Output(inFormat)

	input, err := os.Open(inputFullPath)
	if err != nil {
		d.reportError(fmt.Errorf("failed to open '%s': %w", path, err))
		return false
	}

	outputFullPath, err := d.outputPath(inputFullPath, format)
	if err != nil {
		input.Close()
		d.reportError(fmt.Errorf("failed to create the target directory for '%s': %w", path, err))
		return false
	}

	output, err := os.Create(outputFullPath)
	if err != nil {
		input.Close()
		d.reportError(fmt.Errorf("failed to create '%s': %w", outputFullPath, err))
		return false
	}

	name := filepath.Base(inputFullPath)
	outName := filepath.Base(outputFullPath)
	t := d.newTask(name, input, output)
	if err := t.SetFormat(format); err != nil {
		d.reportError(err)
	}
	w := obfuscate.NewWorkUnit(t, d.whenDone)
	w.Metadata[inputMetadataKey] = name
	w.Metadata[outputMetadataKey] = outName
	w.Metadata[inputFullMetadataKey] = inputFullPath
	w.Metadata[outputFullMetadataKey] = outputFullPath

	d.reportProgress(&Result{
		Status: t.Status(),
		Input:  File{Name: name, Path: inputFullPath},
		Output: File{Name: outName, Path: outputFullPath},
	})

	select {
	case d.pipe <- w:
		d.log.Debugf("%s has been queued", name)
		return true
	case <-d.done:
		t.CloseInput()
		t.CloseOutputs()
		os.Remove(outputFullPath)
		d.log.Debugf("%s: %s", name, obfuscate.ErrClosedTap)
		return false
	}
}

// whenDone is a callback method which will get called by the engine once the
// processing of a task has been finished
func (d *dispatcher) whenDone(w *obfuscate.WorkUnit) {
	if d.onFinish != nil {
		defer d.onFinish()
	}
	input, output := parseMetadata(w.Metadata)

	if err := w.Task.CloseInput(); err != nil {
		d.reportError(fmt.Errorf("failed to close '%s': %w", input.Name, err))
	}
	if err := w.Task.CloseOutputs(); err != nil {
		d.reportError(fmt.Errorf("failed to close '%s': %w", output.Name, err))
	}

	status := w.Task.Status()
	if status != obfuscate.Completed {
		if err := os.Remove(output.Path); err != nil && !os.IsNotExist(err) {
			d.reportError(fmt.Errorf("failed to remove '%s': %w", output.Name, err))
		}
	} else if d.cfg.DeleteCompleted {
		if err := os.Remove(input.Path); err != nil {
			d.reportError(fmt.Errorf("failed to remove '%s': %w", input.Name, err))
		} else {
			d.removeEmptyDirectories(filepath.Dir(input.Path))
		}
	}

	d.reportProgress(&Result{
		Output: output,
		Input:  input,
		Status: status,
		Error:  w.Error,
	})
}

// removeEmptyDirectories removes dir and its parents up to the source directory, as long as they are empty
func (d *dispatcher) removeEmptyDirectories(dir string) {
	for dir != d.source && strings.HasPrefix(dir, d.source+string(filepath.Separator)) {
		if !isDirEmpty(dir) {
			return
		}
		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
			d.reportError(fmt.Errorf("failed to remove '%s' directory: %w", dir, err))
			return
		}
		dir = filepath.Dir(dir)
	}
}

func parseMetadata(metadata obfuscate.MetadataMap) (File, File) {
	return File{
			Name: metadata[inputMetadataKey].(string),
			Path: metadata[inputFullMetadataKey].(string),
		},
		File{
			Name: metadata[outputMetadataKey].(string),
			Path: metadata[outputFullMetadataKey].(string),
		}
}

func createDirIfNotExist(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir, err
	}
	f, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return abs, os.MkdirAll(abs, os.ModePerm)
	}
	if err != nil {
		return abs, err
	}
	if !f.IsDir() {
		return abs, ErrInvalidDirectory
	}
	return abs, nil
}

func isDirEmpty(name string) bool {
	entries, err := ioutil.ReadDir(name)
	if err != nil {
		return false
	}
	return len(entries) == 0
}
