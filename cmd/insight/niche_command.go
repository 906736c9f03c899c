package main

import (
	"fmt"

	"github.com/kapu/creator-insight-go/internal/app"
	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newNicheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "niche <video-id>",
		Short: "Classify the channel that published a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(c *app.Container) error {
				video, err := c.Source.GetVideo(cmd.Context(), args[0])
				if err != nil {
					return describeError(err)
				}
				if video == nil {
					return fmt.Errorf("video %s not found", args[0])
				}

				related, err := c.Source.ListRecentUploads(cmd.Context(), video.ChannelID, constants.AnalysisLimits.MaxRelatedVideos)
				if err != nil {
					c.Logger.Warn("Recent uploads unavailable, classifying from the video alone", zap.Error(err))
				}

				niche, err := c.Niche.GetOrRegenerate(cmd.Context(), video.ChannelID, video, related)
				if err != nil {
					return describeError(err)
				}
				if ctx.opts.wantsJSON() {
					return writeJSON(cmd, niche)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
					{"Channel", video.ChannelTitle},
					{"Niche", niche.Label},
					{"Sub-niche", niche.SubNiche},
					{"Audience", niche.Audience},
					{"Confidence", fmt.Sprintf("%.0f%%", niche.Confidence*100)},
					{"Captured", niche.CapturedAt.Local().Format("2006-01-02 15:04")},
				}))
				return nil
			})
		},
	}
}
