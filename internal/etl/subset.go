// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// WriteSubset copies the header and the first maxRows data rows of the
// staging CSV src into dst. The prefix is stable, so equal maxRows always
// select the same rows. Either path may end in .gz.
func WriteSubset(src, dst string, maxRows int64) (written int64, err error) {
	in, err := openCSV(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	partial := dst + ".partial"
	out, err := createCSV(partial)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(partial)
		}
	}()

	r := bufio.NewReaderSize(in, stagingBufferSize)
	w := bufio.NewWriterSize(out, stagingBufferSize)

	header, err := r.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("read header of %s: %w", src, err)
	}
	if header != StagingHeader {
		return 0, fmt.Errorf("%s: unexpected header %q", src, strings.TrimSpace(header))
	}
	if _, err = w.WriteString(header); err != nil {
		return 0, err
	}

	for written < maxRows {
		line, rerr := r.ReadSlice('\n')
		if len(line) > 0 {
			if _, err = w.Write(line); err != nil {
				return written, fmt.Errorf("write subset: %w", err)
			}
			written++
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			err = fmt.Errorf("read %s: %w", src, rerr)
			return written, err
		}
	}

	if err = w.Flush(); err != nil {
		return written, fmt.Errorf("flush subset: %w", err)
	}
	if err = out.Close(); err != nil {
		return written, fmt.Errorf("close subset: %w", err)
	}
	if err = os.Rename(partial, dst); err != nil {
		return written, fmt.Errorf("publish subset: %w", err)
	}
	return written, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openCSV(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // staging artifact under the output dir
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (wc *writeCloser) Close() error {
	var first error
	for _, c := range wc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func createCSV(path string) (io.WriteCloser, error) {
	f, err := os.Create(path) //nolint:gosec // output path under the configured output dir
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	// Compression follows the published name, not the .partial suffix.
	if !strings.HasSuffix(strings.TrimSuffix(path, ".partial"), ".gz") {
		return f, nil
	}
	zw := gzip.NewWriter(f)
	return &writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
}
