package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective classification rules as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadClassifier()
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(c.RuleSet()); err != nil {
			return eris.Wrap(err, "rules: encode")
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
