package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the gateway is reachable and configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := current.client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("gateway unreachable: %w", err)
		}

		fmt.Fprintln(current.out, headerStyle.Render("Gateway "+res.Status))
		fmt.Fprintf(current.out, "%s %s\n", hintStyle.Render("go"), res.GoVersion)
		fmt.Fprintf(current.out, "%s %s\n", hintStyle.Render("openai"), presence(res.EnvVars.OpenAI))
		fmt.Fprintf(current.out, "%s %s\n", hintStyle.Render("search"), presence(res.EnvVars.Search))
		fmt.Fprintf(current.out, "%s %s\n", hintStyle.Render("translator"), presence(res.EnvVars.Translator))
		return nil
	},
}

func presence(ok bool) string {
	if ok {
		return countStyle.Render("configured")
	}
	return errorStyle.Render("missing")
}
