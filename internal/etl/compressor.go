// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/tomtom215/mediabridge/internal/logging"
)

// StreamingCompressor writes a compressed file while the caller keeps
// producing rows. Close ends the input, Wait blocks until the output is
// complete, and Abort tears everything down and removes the output.
type StreamingCompressor interface {
	io.Writer
	Close() error
	Wait() error
	Abort() error
}

// CompressorFactory opens a StreamingCompressor writing to dst.
type CompressorFactory func(ctx context.Context, dst string) (StreamingCompressor, error)

// NewCompressorFactory picks the staging writer: a `<command> -c` child
// process when compress is set and command is on PATH, an in-process gzip
// writer when it is not, and a plain file when compress is off.
func NewCompressorFactory(compress bool, command string) CompressorFactory {
	if !compress {
		return openPlainFile
	}
	if command != "" {
		path, err := exec.LookPath(command)
		if err == nil {
			return func(ctx context.Context, dst string) (StreamingCompressor, error) {
				return StartProcessCompressor(ctx, path, dst)
			}
		}
		logging.Warn().Err(err).Str("command", command).Msg("Compressor not found, using in-process gzip")
	}
	return func(_ context.Context, dst string) (StreamingCompressor, error) {
		return NewGzipCompressor(dst)
	}
}

// withCompressor runs fn against a fresh compressor for dst. On success the
// input is closed and the child awaited; on error or panic the compressor
// is aborted. Either way no child process outlives the call.
func withCompressor(ctx context.Context, open CompressorFactory, dst string, fn func(w io.Writer) error) (err error) {
	c, err := open(ctx, dst)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = c.Abort()
			panic(r)
		}
		if err != nil {
			if abortErr := c.Abort(); abortErr != nil {
				logging.Warn().Err(abortErr).Str("path", dst).Msg("Failed to abort compressor")
			}
			return
		}
		if err = c.Close(); err != nil {
			_ = c.Abort()
			return
		}
		err = c.Wait()
	}()

	return fn(c)
}

// ProcessCompressor pipes its input to a child `<command> -c` whose stdout
// is the destination file, so compression runs on another core.
type ProcessCompressor struct {
	dst     string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	out     *os.File
	stderr  bytes.Buffer
	closed  bool
	waited  bool
	waitErr error
}

// StartProcessCompressor launches command writing to dst.
func StartProcessCompressor(ctx context.Context, command, dst string) (*ProcessCompressor, error) {
	out, err := os.Create(dst) //nolint:gosec // output path under the configured output dir
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}

	pc := &ProcessCompressor{dst: dst, out: out}
	pc.cmd = exec.CommandContext(ctx, command, "-c") //nolint:gosec // command comes from configuration
	pc.cmd.Stdout = out
	pc.cmd.Stderr = &pc.stderr

	if pc.stdin, err = pc.cmd.StdinPipe(); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return nil, fmt.Errorf("compressor stdin: %w", err)
	}
	if err := pc.cmd.Start(); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return nil, fmt.Errorf("start compressor %s: %w", command, err)
	}
	return pc, nil
}

func (pc *ProcessCompressor) Write(p []byte) (int, error) {
	if pc.closed {
		return 0, errors.New("write to closed compressor")
	}
	n, err := pc.stdin.Write(p)
	if err != nil {
		return n, fmt.Errorf("write to compressor: %w", err)
	}
	return n, nil
}

// Close ends the child's input. It does not wait for the child.
func (pc *ProcessCompressor) Close() error {
	if pc.closed {
		return nil
	}
	pc.closed = true
	if err := pc.stdin.Close(); err != nil {
		return fmt.Errorf("close compressor input: %w", err)
	}
	return nil
}

// Wait reaps the child and closes the output file.
func (pc *ProcessCompressor) Wait() error {
	if pc.waited {
		return pc.waitErr
	}
	pc.waited = true

	err := pc.cmd.Wait()
	closeErr := pc.out.Close()
	switch {
	case err != nil:
		msg := strings.TrimSpace(pc.stderr.String())
		pc.waitErr = fmt.Errorf("compressor exited: %w (%s)", err, msg)
	case closeErr != nil:
		pc.waitErr = fmt.Errorf("close %s: %w", pc.dst, closeErr)
	}
	return pc.waitErr
}

// Abort kills the child, reaps it and removes the partial output.
func (pc *ProcessCompressor) Abort() error {
	_ = pc.Close()
	if !pc.waited && pc.cmd.Process != nil {
		_ = pc.cmd.Process.Kill()
	}
	_ = pc.Wait()
	if err := os.Remove(pc.dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", pc.dst, err)
	}
	return nil
}

// GzipCompressor is the in-process fallback with the same lifecycle.
type GzipCompressor struct {
	dst      string
	out      *os.File
	zw       *gzip.Writer
	closed   bool
	closeErr error
}

// NewGzipCompressor creates dst and returns a gzip writer over it.
func NewGzipCompressor(dst string) (*GzipCompressor, error) {
	out, err := os.Create(dst) //nolint:gosec // output path under the configured output dir
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	return &GzipCompressor{dst: dst, out: out, zw: gzip.NewWriter(out)}, nil
}

func (gc *GzipCompressor) Write(p []byte) (int, error) {
	if gc.closed {
		return 0, errors.New("write to closed compressor")
	}
	return gc.zw.Write(p)
}

// Close flushes the gzip stream and closes the file.
func (gc *GzipCompressor) Close() error {
	if gc.closed {
		return gc.closeErr
	}
	gc.closed = true
	if err := gc.zw.Close(); err != nil {
		_ = gc.out.Close()
		gc.closeErr = fmt.Errorf("finish gzip stream: %w", err)
		return gc.closeErr
	}
	if err := gc.out.Close(); err != nil {
		gc.closeErr = fmt.Errorf("close %s: %w", gc.dst, err)
	}
	return gc.closeErr
}

// Wait returns the Close result; there is nothing to wait for.
func (gc *GzipCompressor) Wait() error {
	return gc.closeErr
}

// Abort closes and removes the output.
func (gc *GzipCompressor) Abort() error {
	_ = gc.Close()
	if err := os.Remove(gc.dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", gc.dst, err)
	}
	return nil
}

// plainFile is used when staging compression is disabled.
type plainFile struct {
	*os.File
	closed   bool
	closeErr error
}

func openPlainFile(_ context.Context, dst string) (StreamingCompressor, error) {
	f, err := os.Create(dst) //nolint:gosec // output path under the configured output dir
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	return &plainFile{File: f}, nil
}

func (pf *plainFile) Close() error {
	if pf.closed {
		return pf.closeErr
	}
	pf.closed = true
	pf.closeErr = pf.File.Close()
	return pf.closeErr
}

func (pf *plainFile) Wait() error {
	return pf.closeErr
}

func (pf *plainFile) Abort() error {
	_ = pf.Close()
	if err := os.Remove(pf.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
