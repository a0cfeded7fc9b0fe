package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/akamensky/argparse"
	"github.com/sirupsen/logrus"

	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/imageio"
	"github.com/xitonix/xmask/obfuscate"
	"github.com/xitonix/xmask/taps"
)

var formats = []string{"auto", "png", "bmp", "qoi", "gif", "jpeg", "jpg"}

type keyArgs struct {
	key       *string
	askKey    *bool
	randomKey *bool
}

func addKeyArgs(cmd *argparse.Command, allowRandom bool) *keyArgs {
	k := &keyArgs{
		key:    cmd.String("k", "key", &argparse.Options{Help: "The key. The built-in default key is used if not specified"}),
		askKey: cmd.Flag("", "ask-key", &argparse.Options{Help: "Read the key from the terminal"}),
	}
	if allowRandom {
		k.randomKey = cmd.Flag("", "random-key", &argparse.Options{Help: "Generate a random key and print it"})
	}
	return k
}

// resolve returns the key to use. An empty key means the default key.
func (k *keyArgs) resolve() (string, error) {
	random := k.randomKey != nil && *k.randomKey
	set := 0
	for _, b := range []bool{*k.key != "", *k.askKey, random} {
		if b {
			set++
		}
	}
	if set > 1 {
		return "", fmt.Errorf("%w: --key, --ask-key and --random-key are mutually exclusive", errInvalidArgument)
	}

	switch {
	case *k.askKey:
		return readKey("Enter the key: ")
	case random:
		key, err := obfuscate.RandomKey(defaultKeyLength)
		if err != nil {
			return "", err
		}
		fmt.Printf("Key: %s\n", key)
		return key, nil
	}
	return *k.key, nil
}

type transformArgs struct {
	areas     *[]string
	blockSize *int
	noPermute *bool
	noRotate  *bool
	noNegate  *bool
	shift     *string
	clip      *string
	fill      *string
}

func addTransformArgs(cmd *argparse.Command) *transformArgs {
	return &transformArgs{
		areas:     cmd.StringList("a", "area", &argparse.Options{Help: "An area to obfuscate in x,y,width,height format. Can be repeated"}),
		blockSize: cmd.Int("b", "block-size", &argparse.Options{Default: obfuscate.DefaultOptions().BlockSize, Help: "Block size in pixels"}),
		noPermute: cmd.Flag("", "no-permute", &argparse.Options{Help: "Do not shuffle the blocks"}),
		noRotate:  cmd.Flag("", "no-rotate", &argparse.Options{Help: "Do not rotate and flip the blocks"}),
		noNegate:  cmd.Flag("", "no-negate", &argparse.Options{Help: "Do not invert the colour channels of the blocks"}),
		shift:     cmd.String("", "shift", &argparse.Options{Help: "Colour shift in contrast:#rrggbb format, e.g. 0.5:#ff0000"}),
		clip: cmd.Selector("", "clip", []string{"bottom", "top", "left", "right"}, &argparse.Options{
			Default: "bottom",
			Help:    "The edge receiving the scrambled blocks",
		}),
		fill: cmd.String("", "fill", &argparse.Options{Default: "#000000", Help: "The colour painted over the areas"}),
	}
}

func (t *transformArgs) options(key string) ([]geometry.Rect, obfuscate.Options, error) {
	opts := obfuscate.DefaultOptions()
	if len(*t.areas) == 0 {
		return nil, opts, fmt.Errorf("%w: at least one --area is required", errInvalidArgument)
	}
	areas, err := parseAreas(*t.areas)
	if err != nil {
		return nil, opts, err
	}

	opts.Key = key
	opts.BlockSize = *t.blockSize
	opts.Permute = !*t.noPermute
	opts.Rotate = !*t.noRotate
	opts.Negate = !*t.noNegate

	if opts.Shift, err = parseShift(*t.shift); err != nil {
		return nil, opts, err
	}
	if opts.Clip, err = geometry.ParseEdge(*t.clip); err != nil {
		return nil, opts, err
	}
	if opts.Fill, err = parseColour(*t.fill); err != nil {
		return nil, opts, err
	}
	return areas, opts, opts.Validate()
}

type outputArgs struct {
	format *string
	force  *bool
}

func addOutputArgs(cmd *argparse.Command) *outputArgs {
	return &outputArgs{
		format: cmd.Selector("", "format", formats, &argparse.Options{
			Default: "auto",
			Help:    "Output format. auto keeps lossless input formats and writes PNG otherwise",
		}),
		force: cmd.Flag("f", "force", &argparse.Options{Help: "Overwrite the output file without asking"}),
	}
}

// resolve returns the output format. In auto mode, a known extension of the output path wins.
func (o *outputArgs) resolve(path string) (imageio.Format, error) {
	f, err := imageio.ParseFormat(*o.format)
	if err != nil {
		return imageio.Auto, err
	}
	if f == imageio.Auto && path != "" {
		if fromPath, err := imageio.FormatFromPath(path); err == nil {
			return fromPath, nil
		}
	}
	return f, nil
}

type obfuscateArgs struct {
	input, output *string
	keys          *keyArgs
	transform     *transformArgs
	out           *outputArgs
}

func initObfuscateCommand(parser *argparse.Parser) (*argparse.Command, *obfuscateArgs) {
	cmd := parser.NewCommand("obfuscate", "Obfuscates the areas of an image")
	return cmd, &obfuscateArgs{
		input:     cmd.String("i", "input", &argparse.Options{Required: true, Help: "Input image"}),
		output:    cmd.String("o", "output", &argparse.Options{Required: true, Help: "Output image"}),
		keys:      addKeyArgs(cmd, true),
		transform: addTransformArgs(cmd),
		out:       addOutputArgs(cmd),
	}
}

type revealArgs struct {
	input, output *string
	keys          *keyArgs
	crop          *bool
	smooth        *bool
	out           *outputArgs
}

func initRevealCommand(parser *argparse.Parser) (*argparse.Command, *revealArgs) {
	cmd := parser.NewCommand("reveal", "Reveals the obfuscated areas of an image")
	return cmd, &revealArgs{
		input:  cmd.String("i", "input", &argparse.Options{Required: true, Help: "Obfuscated image"}),
		output: cmd.String("o", "output", &argparse.Options{Required: true, Help: "Output image"}),
		keys:   addKeyArgs(cmd, false),
		crop:   cmd.Flag("c", "crop", &argparse.Options{Help: "Write the original image only, without the scrambled blocks"}),
		smooth: cmd.Flag("", "smooth", &argparse.Options{Help: "Smooth the block seams of resized images"}),
		out:    addOutputArgs(cmd),
	}
}

type watchArgs struct {
	source, target *string
	mode           *string
	events         *bool
	once           *bool
	delete         *bool
	workers        *int
	interval       *string
	quiet          *string
	keys           *keyArgs
	transform      *transformArgs
	crop           *bool
	smooth         *bool
	format         *string
}

func initWatchCommand(parser *argparse.Parser) (*argparse.Command, *watchArgs) {
	cmd := parser.NewCommand("watch", "Processes the images of a directory as they arrive")
	return cmd, &watchArgs{
		source: cmd.String("s", "source", &argparse.Options{Required: true, Help: "Source directory"}),
		target: cmd.String("t", "target", &argparse.Options{Required: true, Help: "Target directory"}),
		mode: cmd.Selector("m", "mode", []string{obfuscate.Encode.String(), obfuscate.Decode.String()}, &argparse.Options{
			Default: obfuscate.Encode.String(),
			Help:    "Operation",
		}),
		events:    cmd.Flag("e", "events", &argparse.Options{Help: "Subscribe to the filesystem events instead of polling"}),
		once:      cmd.Flag("", "once", &argparse.Options{Help: "Process the existing files and exit"}),
		delete:    cmd.Flag("d", "delete", &argparse.Options{Help: "Delete the input files which have been processed successfully"}),
		workers:   cmd.Int("w", "workers", &argparse.Options{Default: runtime.NumCPU(), Help: "Number of images processed at the same time"}),
		interval:  cmd.String("", "interval", &argparse.Options{Default: "1s", Help: "Polling interval"}),
		quiet:     cmd.String("", "quiet", &argparse.Options{Default: "2s", Help: "How long a new file must stay unchanged before it is processed"}),
		keys:      addKeyArgs(cmd, true),
		transform: addTransformArgs(cmd),
		crop:      cmd.Flag("c", "crop", &argparse.Options{Help: "Reveal mode: write the original images only"}),
		smooth:    cmd.Flag("", "smooth", &argparse.Options{Help: "Reveal mode: smooth the block seams of resized images"}),
		format: cmd.Selector("", "format", formats, &argparse.Options{
			Default: "auto",
			Help:    "Output format. auto keeps lossless input formats and writes PNG otherwise",
		}),
	}
}

type keygenArgs struct {
	length *int
	count  *int
}

func initKeygenCommand(parser *argparse.Parser) (*argparse.Command, *keygenArgs) {
	cmd := parser.NewCommand("keygen", "Generates random keys")
	return cmd, &keygenArgs{
		length: cmd.Int("n", "length", &argparse.Options{Default: defaultKeyLength, Help: "Key length"}),
		count:  cmd.Int("c", "count", &argparse.Options{Default: 1, Help: "Number of keys"}),
	}
}

func readImage(path string) (image.Image, imageio.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, imageio.Auto, err
	}
	defer f.Close()
	return imageio.Decode(f)
}

// writeImage writes the image into path. It returns false if the user refused to overwrite an existing file.
func writeImage(path string, img image.Image, format imageio.Format, force bool, log *logrus.Logger) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		if !AskForConfirmation(fmt.Sprintf("%s already exists. Overwrite", path)) {
			return false, nil
		}
	}
	if !format.Lossless() {
		log.Warnf("%s is not lossless: the colour byte code may not survive", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	if err := imageio.Encode(f, img, format); err != nil {
		f.Close()
		os.Remove(path)
		return false, err
	}
	return true, f.Close()
}

func obfuscateFile(ctx context.Context, args *obfuscateArgs, log *logrus.Logger) error {
	key, err := args.keys.resolve()
	if err != nil {
		return err
	}
	areas, opts, err := args.transform.options(key)
	if err != nil {
		return err
	}
	format, err := args.out.resolve(*args.output)
	if err != nil {
		return err
	}

	img, inFormat, err := readImage(*args.input)
	if err != nil {
		return err
	}
	log.Debugf("obfuscating %d area(s) of %s (%s)", len(areas), *args.input, inFormat)

	start := time.Now()
	out, err := obfuscate.NewEncoder(opts).EncodeContext(ctx, img, areas)
	if err != nil {
		return err
	}

	written, err := writeImage(*args.output, out, format.Output(inFormat), *args.out.force, log)
	if err != nil || !written {
		return err
	}
	log.WithFields(logrus.Fields{
		"input":    *args.input,
		"output":   *args.output,
		"duration": time.Since(start),
	}).Info("obfuscated")
	return nil
}

func revealFile(ctx context.Context, args *revealArgs, log *logrus.Logger) error {
	key, err := args.keys.resolve()
	if err != nil {
		return err
	}
	format, err := args.out.resolve(*args.output)
	if err != nil {
		return err
	}

	img, inFormat, err := readImage(*args.input)
	if err != nil {
		return err
	}
	if !inFormat.Lossless() {
		log.Warnf("%s is a %s image: the colour byte code may be damaged", *args.input, inFormat)
	}

	start := time.Now()
	out, err := obfuscate.NewDecoder(obfuscate.DecodeOptions{
		Key:    key,
		Crop:   *args.crop,
		Smooth: *args.smooth,
	}).DecodeContext(ctx, img)
	if err != nil {
		return err
	}

	written, err := writeImage(*args.output, out, format.Output(inFormat), *args.out.force, log)
	if err != nil || !written {
		return err
	}
	log.WithFields(logrus.Fields{
		"input":    *args.input,
		"output":   *args.output,
		"duration": time.Since(start),
	}).Info("revealed")
	return nil
}

// fileTap is implemented by all the filesystem taps
type fileTap interface {
	obfuscate.Tap
	Errors() <-chan error
	Progress() <-chan *taps.Result
}

func (w *watchArgs) config(log *logrus.Logger) (taps.Config, error) {
	cfg := taps.Config{
		Source:          *w.source,
		Target:          *w.target,
		DeleteCompleted: *w.delete,
		NotifyErrors:    true,
		ReportProgress:  true,
		Log:             log,
	}

	var err error
	if cfg.PollingInterval, err = time.ParseDuration(*w.interval); err != nil {
		return cfg, fmt.Errorf("%w: interval: %s", errInvalidArgument, err)
	}
	if cfg.QuietPeriod, err = time.ParseDuration(*w.quiet); err != nil {
		return cfg, fmt.Errorf("%w: quiet: %s", errInvalidArgument, err)
	}
	if cfg.Format, err = imageio.ParseFormat(*w.format); err != nil {
		return cfg, err
	}

	if strings.EqualFold(*w.mode, obfuscate.Decode.String()) {
		cfg.Mode = obfuscate.Decode
		if *w.keys.randomKey {
			return cfg, fmt.Errorf("%w: --random-key cannot be used to reveal", errInvalidArgument)
		}
		key, err := w.keys.resolve()
		if err != nil {
			return cfg, err
		}
		cfg.DecodeOptions = obfuscate.DecodeOptions{Key: key, Crop: *w.crop, Smooth: *w.smooth}
		return cfg, nil
	}

	cfg.Mode = obfuscate.Encode
	key, err := w.keys.resolve()
	if err != nil {
		return cfg, err
	}
	cfg.Areas, cfg.Options, err = w.transform.options(key)
	return cfg, err
}

func newTap(cfg taps.Config, events, once bool) (fileTap, <-chan obfuscate.None, error) {
	switch {
	case once:
		tap, err := taps.NewFileTap(cfg)
		if err != nil {
			return nil, nil, err
		}
		return tap, tap.Done(), nil
	case events:
		tap, err := taps.NewNotifyTap(cfg)
		return tap, nil, err
	default:
		tap, err := taps.NewDirectoryTap(cfg)
		return tap, nil, err
	}
}

func watch(ctx context.Context, args *watchArgs, log *logrus.Logger) error {
	if *args.workers < 1 || *args.workers > 1<<16-1 {
		return fmt.Errorf("%w: workers must be between 1 and %d", errInvalidArgument, 1<<16-1)
	}
	cfg, err := args.config(log)
	if err != nil {
		return err
	}

	tap, done, err := newTap(cfg, *args.events, *args.once)
	if err != nil {
		return err
	}

	engine := obfuscate.NewEngine(uint16(*args.workers), false, tap, log)
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range tap.Errors() {
			log.WithError(err).Error("tap failure")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range tap.Progress() {
			entry := log.WithFields(logrus.Fields{
				"input":  p.Input.Path,
				"output": p.Output.Path,
				"status": p.Status,
			})
			switch p.Status {
			case obfuscate.Completed:
				entry.Info(cfg.Mode)
			case obfuscate.Failed:
				entry.WithError(p.Error).Error(cfg.Mode)
			case obfuscate.Cancelled:
				entry.Warn(cfg.Mode)
			default:
				entry.Debug(cfg.Mode)
			}
		}
	}()

	engine.Start()
	log.WithFields(logrus.Fields{
		"source":  *args.source,
		"target":  *args.target,
		"mode":    cfg.Mode,
		"workers": *args.workers,
	}).Info("The service is up and running. Press Ctrl+C to stop it")

	select {
	case <-ctx.Done():
	case <-done:
	}

	engine.Stop()
	wg.Wait()
	log.Info("The engine has been stopped successfully")
	return nil
}

func keygen(args *keygenArgs) error {
	if *args.count < 1 {
		return fmt.Errorf("%w: count must be at least one", errInvalidArgument)
	}
	for i := 0; i < *args.count; i++ {
		key, err := obfuscate.RandomKey(*args.length)
		if err != nil {
			return err
		}
		fmt.Println(key)
	}
	return nil
}
