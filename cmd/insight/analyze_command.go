package main

import (
	"strings"

	"github.com/kapu/creator-insight-go/internal/app"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/spf13/cobra"
)

type reportFlags struct {
	owner     string
	rangeFlag string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.owner, "owner", "", "Owner id the video must belong to")
	cmd.Flags().StringVarP(&f.rangeFlag, "range", "r", string(domain.Range28Days), "Comparison range: 7d, 28d, 90d, 365d or lifetime")
	_ = cmd.MarkFlagRequired("owner")
}

func (f *reportFlags) rangeSelector() domain.RangeSelector {
	return domain.RangeSelector(strings.ToLower(strings.TrimSpace(f.rangeFlag)))
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <video-id>",
		Short: "Produce the full analysis report for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(c *app.Container) error {
				result, err := c.Analysis.ProduceAnalysis(cmd.Context(), args[0], flags.owner, flags.rangeSelector())
				if err != nil {
					return describeError(err)
				}
				return printReport(cmd, ctx.opts, result)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newCommentsCommand(ctx *commandContext) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "comments <video-id>",
		Short: "Refresh only the comment analysis of an already analyzed video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(c *app.Container) error {
				result, err := c.Analysis.ProduceAuxiliaryOnly(cmd.Context(), args[0], flags.owner, flags.rangeSelector())
				if err != nil {
					return describeError(err)
				}
				return printReport(cmd, ctx.opts, result)
			})
		},
	}
	flags.register(cmd)
	return cmd
}
