package main

import (
	"fmt"

	"github.com/dhamidi/classkit/classfile"
	"github.com/spf13/cobra"
)

func newFramesCmd() *cobra.Command {
	var descriptor string

	cmd := &cobra.Command{
		Use:   "frames <file> <method>",
		Short: "List the stack map frames of a method",
		Long: `List the StackMapTable frames of every method with the given name.

Use --desc to pick one overload.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := decodeFile(args[0])
			if cf == nil {
				return err
			}
			if err != nil {
				log.Warningf("%s: %s", args[0], err)
			}

			cp := cf.ConstantPool
			out := cmd.OutOrStdout()
			found := false
			for _, m := range cf.GetMethods(args[1]) {
				if descriptor != "" && m.Descriptor(cp) != descriptor {
					continue
				}
				found = true
				fmt.Fprintf(out, "%s%s\n", m.Name(cp), m.Descriptor(cp))
				for _, line := range classfile.FrameListing(m.StackMapFrames(cp), cp) {
					fmt.Fprintf(out, "  %s\n", line)
				}
			}
			if !found {
				return fmt.Errorf("no method %s%s in %s", args[1], descriptor, cf.ClassName())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&descriptor, "desc", "d", "", "method descriptor")

	return cmd
}
