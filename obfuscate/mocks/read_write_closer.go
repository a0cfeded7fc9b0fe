// Package mocks contains io test doubles
package mocks

import "errors"

// ErrBrokenWriter is returned by every write to a BrokenWriter
var ErrBrokenWriter = errors.New("broken writer")

// ReadCloser a reader which records whether it has been closed
type ReadCloser struct {
	IsClosed bool
}

func (o *ReadCloser) Read(p []byte) (n int, err error) {
	return 0, nil
}

func (o *ReadCloser) Close() error {
	o.IsClosed = true
	return nil
}

// WriteCloser a writer which swallows the data and records whether it has been closed
type WriteCloser struct {
	IsClosed bool
	Written  int
}

func (o *WriteCloser) Write(p []byte) (n int, err error) {
	o.Written += len(p)
	return len(p), nil
}

func (o *WriteCloser) Close() error {
	o.IsClosed = true
	return nil
}

// BrokenWriter fails every write
type BrokenWriter struct{}

func (BrokenWriter) Write(p []byte) (n int, err error) {
	return 0, ErrBrokenWriter
}
