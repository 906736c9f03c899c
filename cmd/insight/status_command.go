package main

import (
	"fmt"
	"strconv"

	"github.com/kapu/creator-insight-go/internal/app"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check Postgres, Redis, the generative circuit and YouTube quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(c *app.Container) error {
				h := c.Health(cmd.Context())
				if ctx.opts.wantsJSON() {
					return writeJSON(cmd, h)
				}
				redis := "disabled"
				if h.RedisEnabled {
					redis = yesNo(h.Redis)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
					{"Postgres", yesNo(h.Postgres)},
					{"Redis", redis},
					{"AI circuit", h.Circuit},
					{"Circuit failures", strconv.Itoa(h.CircuitFailure)},
					{"Quota used", strconv.Itoa(h.QuotaUsed)},
					{"Quota remaining", strconv.Itoa(h.QuotaRemaining)},
					{"Quota reset", h.QuotaReset.Local().Format("2006-01-02 15:04")},
				}))
				return nil
			})
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
