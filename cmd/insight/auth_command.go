package main

import (
	"fmt"
	"os"

	"github.com/kapu/creator-insight-go/internal/service/youtube"
	"github.com/spf13/cobra"
)

// newAuthCommand manages the OAuth token used instead of an API key. It reads
// only its own flags so it works before the rest of the configuration exists.
func newAuthCommand() *cobra.Command {
	var credentials, token string

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize YouTube access with OAuth",
	}
	authCmd.PersistentFlags().StringVar(&credentials, "credentials", os.Getenv("YOUTUBE_OAUTH_CREDENTIALS"), "OAuth client secret JSON file")
	authCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("YOUTUBE_OAUTH_TOKEN"), "Token file to write")

	authCmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print the consent URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if credentials == "" {
				return fmt.Errorf("--credentials is required")
			}
			url, err := youtube.AuthCodeURL(credentials)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Open this URL, approve access, then run `insight auth exchange <code>`:")
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	})

	authCmd.AddCommand(&cobra.Command{
		Use:   "exchange <code>",
		Short: "Exchange an authorization code for a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if credentials == "" || token == "" {
				return fmt.Errorf("--credentials and --token are required")
			}
			if err := youtube.Authorize(cmd.Context(), credentials, token, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", token)
			return nil
		},
	})

	return authCmd
}
