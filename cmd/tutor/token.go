package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurotutor-backend/internal/platform/identity"
)

var tokenCmd = &cobra.Command{
	Use:   "issue-token <user_id>",
	Short: "Sign a development access token with JWT_SECRET_KEY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := identity.NewHMAC(identity.ConfigFromEnv())
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		token, err := signer.Issue(args[0], email, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("email", "", "Email claim")
	tokenCmd.Flags().String("name", "", "Name claim")
}
