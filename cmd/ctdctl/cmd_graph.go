package main

import (
	"context"

	"github.com/spf13/cobra"

	"ctdportal/application/services"
	"ctdportal/domain/layout"
)

func (c *cli) graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show which documents transclude which",
		Args:  cobra.NoArgs,
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.graphs.TransclusionGraph(ctx, c.session)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view, func() {
				titles := make(map[string]string, len(view.Graph.Nodes))
				for _, n := range view.Graph.Nodes {
					if d, ok := n.Data.(layout.DocumentNodeData); ok {
						titles[n.ID] = d.Title
					}
				}
				rows := make([][]string, 0, len(view.Graph.Edges))
				for _, e := range view.Graph.Edges {
					rows = append(rows, []string{titles[e.Source], titles[e.Target]})
				}
				p.field("Documents", itoa(view.DocumentCount))
				p.field("Transclusions", itoa(view.TransclusionCount))
				p.table([]string{"SOURCE", "TARGET"}, rows)
			})
		}),
	}
}

func (c *cli) linksCmd() *cobra.Command {
	var document string

	cmd := &cobra.Command{
		Use:   "links",
		Short: "Explore content links across documents",
		Args:  cobra.NoArgs,
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.graphs.LinkExplorer(ctx, c.session, document)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view, func() {
				rows := make([][]string, 0, len(view.Sources))
				for _, src := range view.Sources {
					rows = append(rows, []string{src.DocumentID, src.DocumentTitle, itoa(src.LinkCount)})
				}
				p.table([]string{"DOCUMENT", "TITLE", "LINKS"}, rows)
				p.field("Total links", itoa(view.TotalLinks))
				p.field("Content nodes", itoa(len(view.Graph.Nodes)))
			})
		}),
	}
	cmd.Flags().StringVar(&document, "document", services.AllDocuments, `document id, or "all"`)
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <versionId>",
		Short: "Check a version's hash against the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			res, err := c.documents.Verify(ctx, c.session, args[0])
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(res, func() {
				p.heading(res.DocumentTitle + " v" + itoa(res.VersionNumber))
				p.field("Ledger", p.status(res.Verified, "verified", "not verified"))
				p.field("Hash", res.ContentHash)
				if res.IotaTxID != "" {
					p.field("Transaction", res.IotaTxID)
				}
				p.field("Created", formatTime(res.CreatedAt.Time))
			})
		}),
	}
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Look up users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a user's profile and documents",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.profiles.Profile(ctx, c.session, args[0])
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view, func() {
				u := view.Profile
				heading := u.Name
				if view.IsSelf {
					heading += " (you)"
				}
				p.heading(heading)
				p.field("Email", u.Email)
				p.field("Role", string(u.Role))
				if u.Organization != "" {
					p.field("Organization", u.Organization)
				}
				if u.IotaDID != "" {
					p.field("DID", u.IotaDID)
				}
				p.field("Documents created", itoa(int(view.Stats.DocumentsCreated)))
				p.field("Versions authored", itoa(int(view.Stats.VersionsAuthored)))
				p.field("Transclusions", itoa(int(view.Stats.TransclusionsCreated)))
				p.table([]string{"ID", "TITLE", "TYPE", "VERSION", "AUTHOR", "UPDATED", "LEDGER"}, cardRows(p, view.Documents))
			})
		}),
	})
	return cmd
}
