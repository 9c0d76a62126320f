package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/classkit/classfile"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var decodeLog = commonlog.GetLogger("classkit.decode")

// collectClassFiles expands directories in args to the .class files below
// them. Plain file arguments are kept as given.
func collectClassFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".class") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}

// forEachFile runs fn over files with at most workers in flight and writes
// each file's buffered output to w in argument order. The first error
// cancels the remaining work.
func forEachFile(ctx context.Context, w io.Writer, files []string, workers int, fn func(ctx context.Context, path string, out *bytes.Buffer) error) error {
	outputs := make([]bytes.Buffer, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, path, &outputs[i]); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	err := g.Wait()

	for i := range outputs {
		if _, werr := outputs[i].WriteTo(w); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// decodeFile decodes path with a fresh set of session options; sessions
// never share a version gate.
func decodeFile(path string) (*classfile.ClassFile, error) {
	opts, err := cfg.DecodeOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, classfile.WithLogger(decodeLog))
	return classfile.ParseFile(path, opts...)
}
