package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dhamidi/classkit/classfile"
	"github.com/dhamidi/classkit/format"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var (
		dumpFormat string
		showPool   bool
		showFrames bool
	)

	cmd := &cobra.Command{
		Use:   "dump <file|dir>...",
		Short: "List the contents of class files",
		Long: `Decode each class file and print its contents.

Directories are searched for .class files. Files are decoded concurrently
and printed in argument order. A file that cannot be fully decoded is still
listed as far as it was read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dumpFormat == "" {
				dumpFormat = cfg.Output.Format
			}
			files, err := collectClassFiles(args)
			if err != nil {
				return err
			}

			var failed atomic.Int32
			err = forEachFile(cmd.Context(), cmd.OutOrStdout(), files, cfg.Run.Workers, func(ctx context.Context, path string, out *bytes.Buffer) error {
				cf, decodeErr := decodeFile(path)
				if cf == nil {
					return decodeErr
				}
				if decodeErr != nil {
					failed.Add(1)
					log.Errorf("%s: %s", path, decodeErr)
					if errors.Is(decodeErr, classfile.ErrFatal) && dumpFormat == "cbor" {
						return nil
					}
				}
				if len(files) > 1 && dumpFormat == "line" {
					fmt.Fprintf(out, "file\t%s\n", path)
				}
				enc, err := format.New(dumpFormat, out)
				if err != nil {
					return err
				}
				switch e := enc.(type) {
				case *format.LineEncoder:
					e.Pool = showPool
					e.Frames = showFrames
				case *format.JSONEncoder:
					e.Pool = showPool
				}
				if err := enc.Encode(cf); err != nil {
					return fmt.Errorf("encode %s: %w", dumpFormat, err)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if n := failed.Load(); n > 0 {
				return fmt.Errorf("%d of %d files failed to decode", n, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "", "output format ("+strings.Join(format.Names, ", ")+")")
	cmd.Flags().BoolVar(&showPool, "pool", false, "include the constant pool")
	cmd.Flags().BoolVar(&showFrames, "frames", false, "include stack map frames of each method")

	return cmd
}
