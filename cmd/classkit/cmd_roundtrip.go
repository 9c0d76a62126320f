package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/dhamidi/classkit/classfile"
	"github.com/spf13/cobra"
)

func newRoundtripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <file|dir>...",
		Short: "Check that class files re-encode to identical bytes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectClassFiles(args)
			if err != nil {
				return err
			}

			var mismatched atomic.Int32
			err = forEachFile(cmd.Context(), cmd.OutOrStdout(), files, cfg.Run.Workers, func(ctx context.Context, path string, out *bytes.Buffer) error {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				opts, err := cfg.DecodeOptions()
				if err != nil {
					return err
				}
				cf, decodeErr := classfile.Decode(data, opts...)
				if cf == nil {
					return decodeErr
				}
				encoded, err := classfile.Encode(cf)
				if err != nil {
					mismatched.Add(1)
					fmt.Fprintf(out, "FAIL\t%s\tencode: %v\n", path, err)
					return nil
				}
				if at := firstDifference(data, encoded); at >= 0 {
					mismatched.Add(1)
					fmt.Fprintf(out, "FAIL\t%s\tdiffers at offset %d (%d bytes in, %d bytes out)\n", path, at, len(data), len(encoded))
					return nil
				}
				status := "ok"
				if decodeErr != nil {
					status = "ok (partial)"
				}
				fmt.Fprintf(out, "%s\t%s\t%d diagnostics\n", status, path, len(cf.Diagnostics))
				return nil
			})
			if err != nil {
				return err
			}
			if n := mismatched.Load(); n > 0 {
				return fmt.Errorf("%d of %d files did not round-trip", n, len(files))
			}
			return nil
		},
	}
}

// firstDifference returns the first offset where a and b differ, or -1.
func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
