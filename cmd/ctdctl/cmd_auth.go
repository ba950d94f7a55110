package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
)

func (c *cli) loginCmd() *cobra.Command {
	var req entities.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session",
		Long:  "Log in with email and password. Without --password the password is read from the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				password, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password = password
			}

			user, err := c.auth.Login(cmd.Context(), c.session, req)
			if err != nil {
				return err
			}

			p := newPrinter(c.out, c.opts.output)
			return p.emit(user, func() {
				p.linef("Logged in as %s (%s, %s)", user.Name, user.Email, user.Role)
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var (
		req  entities.RegisterRequest
		role string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := valueobjects.ParseRole(strings.ToUpper(role))
			if err != nil {
				return err
			}
			req.Role = r

			resp, err := c.auth.Register(cmd.Context(), c.session, req)
			if err != nil {
				return err
			}

			p := newPrinter(c.out, c.opts.output)
			return p.emit(resp, func() {
				p.linef("Registered %s (user id %s). Run `ctdctl login` to start a session.", req.Email, resp.UserID)
				if resp.IotaDID != "" {
					p.field("DID", resp.IotaDID)
				}
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Email, "email", "", "account email")
	flags.StringVar(&req.Password, "password", "", "account password (at least 6 characters)")
	flags.StringVar(&req.Name, "name", "", "display name")
	flags.StringVar(&role, "role", "", "SPONSOR, RESEARCHER, HOSPITAL, ETHICS_COMMITTEE or AUDITOR")
	flags.StringVar(&req.Organization, "organization", "", "organization")
	for _, name := range []string{"email", "password", "name", "role"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.auth.Logout(c.session); err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(map[string]string{"status": "logged out"}, func() {
				p.linef("Logged out")
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: c.authed(func(ctx context.Context, args []string) error {
			user, _ := c.session.User()
			p := newPrinter(c.out, c.opts.output)
			return p.emit(user, func() {
				p.heading(user.Name)
				p.field("ID", user.ID)
				p.field("Email", user.Email)
				p.field("Role", string(user.Role))
				if user.Organization != "" {
					p.field("Organization", user.Organization)
				}
			})
		}),
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
