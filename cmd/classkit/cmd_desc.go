package main

import (
	"fmt"

	"github.com/dhamidi/classkit/classfile"
	"github.com/spf13/cobra"
)

func newDescCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "desc <descriptor>",
		Short: "Parse a descriptor or generic signature",
		Long: `Parse a field or method descriptor, or a class, field or method
signature, and print it in source form followed by its canonical encoding.

Kinds: field, method, class-sig, field-sig, method-sig.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				result classfile.Type
				err    error
			)
			switch kind {
			case "field":
				result, err = classfile.ParseFieldDescriptor(args[0])
			case "method":
				result, err = classfile.ParseMethodDescriptor(args[0])
			case "class-sig":
				result, err = classfile.ParseClassSignature(args[0])
			case "field-sig":
				result, err = classfile.ParseFieldSignature(args[0])
			case "method-sig":
				result, err = classfile.ParseMethodSignature(args[0])
			default:
				return fmt.Errorf("unknown kind: %s (expected field, method, class-sig, field-sig, or method-sig)", kind)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			fmt.Fprintln(cmd.OutOrStdout(), result.Descriptor())
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "method", "what the argument is")

	return cmd
}
