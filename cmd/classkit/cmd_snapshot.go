package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhamidi/classkit/classfile"
	"github.com/dhamidi/classkit/format"
	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write and read CBOR snapshots of class files",
	}
	cmd.AddCommand(newSnapshotWriteCmd())
	cmd.AddCommand(newSnapshotReadCmd())
	return cmd
}

func newSnapshotWriteCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "write <file|dir>...",
		Short: "Store each class file as a .cbor snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = cfg.Output.Dir
			}
			if outDir == "" {
				outDir = "."
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			files, err := collectClassFiles(args)
			if err != nil {
				return err
			}
			var (
				mu      sync.Mutex
				written = make(map[string]string)
			)
			return forEachFile(cmd.Context(), cmd.OutOrStdout(), files, cfg.Run.Workers, func(ctx context.Context, path string, out *bytes.Buffer) error {
				cf, err := decodeFile(path)
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := format.NewSnapshotEncoder(&buf).Encode(cf); err != nil {
					return err
				}
				name := strings.TrimSuffix(filepath.Base(path), ".class") + ".cbor"
				if cf.ClassName() != "" {
					name = strings.ReplaceAll(cf.ClassName(), "/", ".") + ".cbor"
				}
				target := filepath.Join(outDir, name)
				mu.Lock()
				prev, taken := written[target]
				if !taken {
					written[target] = path
				}
				mu.Unlock()
				if taken {
					return fmt.Errorf("snapshot %s already written from %s", target, prev)
				}
				if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
				fmt.Fprintf(out, "%s\t%s\n", path, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "directory for the snapshots")

	return cmd
}

func newSnapshotReadCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "read <snapshot.cbor>",
		Short: "Rebuild a class file from a snapshot",
		Long: `Rebuild the class file stored in a snapshot.

Without -o the class is listed in the configured output format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer f.Close()

			opts, err := cfg.DecodeOptions()
			if err != nil {
				return err
			}
			cf, err := format.ReadSnapshot(f, opts...)
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			if outFile != "" {
				return classfile.WriteFile(outFile, cf)
			}
			enc, err := format.New(cfg.Output.Format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return enc.Encode(cf)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write the rebuilt .class file here")

	return cmd
}
