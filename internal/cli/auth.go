package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"leadboard/client"
)

func (a *app) loginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("--token is required")
			}
			ctx := cmd.Context()
			api := a.newClient(client.StaticToken(token))
			me, err := api.Me(ctx)
			if err != nil {
				return fmt.Errorf("verify token: %w", err)
			}
			if err := a.sess.Login(ctx, token, &me); err != nil {
				return err
			}
			if company, err := api.Company(ctx); err != nil {
				a.log.WithError(err).Warn("could not load company settings")
			} else if err := a.sess.SetCompany(ctx, company); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", me.Name, roleName(me.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token issued by the CRM")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sess.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := a.sess.State()
			if st.Token == "" || st.User == nil {
				return ErrNotSignedIn
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", st.User.Name, st.User.Email)
			fmt.Fprintf(out, "role: %s\n", roleName(st.User.Role))
			if st.Company != nil {
				fmt.Fprintf(out, "company: %s\n", st.Company.Name)
			}
			fmt.Fprintf(out, "theme: %s\n", st.Theme)
			return nil
		},
	}
}
