package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify LABEL...",
	Short: "Show the tag and severity assigned to crime labels",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadClassifier()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DELITO\tTIPO\tGRAVE\tGRUPO")
		for _, label := range args {
			res := c.Classify(label)
			group := c.Group(label)
			if group == "" {
				group = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", label, res.Tag, res.Severe, group)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
