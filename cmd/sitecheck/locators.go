package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/networkteam/sitecheck/homepage"
	"github.com/networkteam/sitecheck/locator"
)

func newLocatorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locators",
		Short: "List the home page locators with configured overrides applied",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			overrides, err := a.cfg.LocatorOverrides()
			if err != nil {
				return err
			}
			registry, err := homepage.Locators.WithOverrides(overrides)
			if err != nil {
				return err
			}

			names := registry.Names()
			width := lo.Max(lo.Map(names, func(name locator.Name, _ int) int {
				return len(name)
			}))

			out := cmd.OutOrStdout()
			for _, name := range names {
				l, _ := registry.Get(name)
				line := fmt.Sprintf("%-*s  %s", width, name, l)
				if _, ok := overrides[name]; ok {
					line += "  (override)"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		}),
	}
}
