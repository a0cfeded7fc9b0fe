package obfuscate

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"

	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/imageio"
)

// Operation represents the operation which needs to be done by a Task
type Operation int8

const (
	// Encode obfuscation mode
	Encode Operation = iota
	// Decode reveal mode
	Decode
)

// String returns the string representation of the operation
func (o Operation) String() string {
	if o == Encode {
		return "obfuscate"
	}
	return "reveal"
}

// Task is a unit of obfuscation work: an image read from the input, processed and written to the outputs
type Task struct {
	// Name a label used in the logs
	Name string

	mode    Operation
	input   io.Reader
	format  imageio.Format
	areas   []geometry.Rect
	encode  Options
	decode  DecodeOptions
	outputs []io.Writer

	mux        sync.Mutex
	status     Status
	inProgress bool
}

// NewEncodeTask creates a new Task which obfuscates the areas of the input image
func NewEncodeTask(name string, input io.Reader, output io.Writer, areas []geometry.Rect, opts Options) *Task {
	return &Task{
		Name:    name,
		mode:    Encode,
		input:   input,
		outputs: []io.Writer{output},
		areas:   areas,
		encode:  opts,
		status:  Queued,
	}
}

// NewDecodeTask creates a new Task which reveals the input image
func NewDecodeTask(name string, input io.Reader, output io.Writer, opts DecodeOptions) *Task {
	return &Task{
		Name:    name,
		mode:    Decode,
		input:   input,
		outputs: []io.Writer{output},
		decode:  opts,
		status:  Queued,
	}
}

// Mode returns the operation of the task
func (t *Task) Mode() Operation {
	return t.mode
}

// SetFormat sets the format of the output image. The default is imageio.Auto.
// Calling this function on an in-progress Task will return ErrOperationInProgress error
func (t *Task) SetFormat(f imageio.Format) error {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.inProgress {
		return ErrOperationInProgress
	}
	t.format = f
	return nil
}

// AddOutput adds a new output to the Task
// Calling this function on an in-progress Task will return ErrOperationInProgress error
// You can check the progress state of a Task by calling Status method
func (t *Task) AddOutput(output io.Writer) error {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.inProgress {
		return ErrOperationInProgress
	}
	t.outputs = append(t.outputs, output)
	return nil
}

// CloseInput closes the input Reader.
// If the reader is not a io.Closer, calling this function will have no effect
// Calling this function on an in-progress Task will return ErrOperationInProgress error
func (t *Task) CloseInput() error {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.inProgress {
		return ErrOperationInProgress
	}
	input, ok := t.input.(io.Closer)
	if ok && input != nil {
		return input.Close()
	}
	return nil
}

// CloseOutputs closes all the output Writers.
// If the output is not a io.Closer, calling this function will have no effect
// Calling this function on an in-progress Task will return ErrOperationInProgress error
func (t *Task) CloseOutputs() error {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.inProgress {
		return ErrOperationInProgress
	}
	for _, out := range t.outputs {
		output, ok := out.(io.Closer)
		if ok && output != nil {
			err := output.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Status returns the current status of the task
func (t *Task) Status() Status {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.status
}

func (t *Task) markAsInProgress() {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.inProgress = true
	t.status = InProgress
}

func (t *Task) markAsComplete(status Status) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.status = status
	t.inProgress = false
}

// run decodes the input image, processes it and writes the result into all the outputs
func (t *Task) run(ctx context.Context) (Status, error) {
	img, inputFormat, err := imageio.Decode(t.input)
	if err != nil {
		return Failed, err
	}

	if ctx.Err() != nil {
		return Cancelled, nil
	}

	var out image.Image
	if t.mode == Encode {
		out, err = NewEncoder(t.encode).EncodeContext(ctx, img, t.areas)
	} else {
		out, err = NewDecoder(t.decode).DecodeContext(ctx, img)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Cancelled, nil
		}
		return Failed, err
	}

	if ctx.Err() != nil {
		return Cancelled, nil
	}

	if err := imageio.Encode(io.MultiWriter(t.outputs...), out, t.format.Output(inputFormat)); err != nil {
		return Failed, err
	}
	return Completed, nil
}
