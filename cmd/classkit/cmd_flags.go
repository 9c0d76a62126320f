package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhamidi/classkit/classfile"
	"github.com/spf13/cobra"
)

func newFlagsCmd() *cobra.Command {
	var (
		ctxName string
		version string
	)

	cmd := &cobra.Command{
		Use:   "flags <access_flags>",
		Short: "Explain an access_flags value",
		Long: `Print the modifiers an access_flags value stands for in a context.

The value may be decimal or 0x-prefixed hex. The class file version decides
whether value-object meanings apply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := strconv.ParseUint(args[0], 0, 16)
			if err != nil {
				return fmt.Errorf("parse flags: %w", err)
			}
			flags := classfile.AccessFlags(raw)
			ctx, err := classfile.ParseContext(ctxName)
			if err != nil {
				return err
			}
			v, err := classfile.ParseVersion(version)
			if err != nil {
				return err
			}
			variant := classfile.VariantOf(v)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "keywords\t%s\n", strings.Join(classfile.Render(flags, ctx, variant), " "))
			fmt.Fprintf(out, "names\t%s\n", strings.Join(classfile.Names(flags, ctx, variant), " "))
			if bad := classfile.Illegal(flags, ctx, variant); bad != 0 {
				fmt.Fprintf(out, "illegal\t0x%04x\n", uint16(bad))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ctxName, "context", "c", "class", "flags context (class, inner-class, field, method, module, requires, exports, opens, method-parameters)")
	cmd.Flags().StringVar(&version, "class-version", classfile.DefaultClassVersion.String(), "class file version the flags come from")

	return cmd
}
