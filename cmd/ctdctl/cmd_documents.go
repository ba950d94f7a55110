package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ctdportal/application/services"
	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
)

func (c *cli) documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs", "doc"},
		Short:   "List, read and change documents",
	}
	cmd.AddCommand(
		c.documentsListCmd(),
		c.documentsCreateCmd(),
		c.documentsShowCmd(),
		c.documentsUpdateCmd(),
		c.documentsDeleteCmd(),
		c.documentsVersionsCmd(),
		c.documentsTranscludeCmd(),
		c.documentsTransclusionsCmd(),
		c.documentsAddSectionCmd(),
		c.documentsStructureCmd(),
		c.documentsVersionTreeCmd(),
		c.documentsCompareCmd(),
	)
	return cmd
}

func (c *cli) documentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.documents.Dashboard(ctx, c.session)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view.Documents, func() {
				p.table([]string{"ID", "TITLE", "TYPE", "VERSION", "AUTHOR", "UPDATED", "LEDGER"}, cardRows(p, view.Documents))
			})
		}),
	}
}

func cardRows(p *printer, cards []services.DocumentCard) [][]string {
	rows := make([][]string, 0, len(cards))
	for _, d := range cards {
		rows = append(rows, []string{
			d.ID,
			d.Title,
			string(d.DocType),
			"v" + itoa(d.VersionNumber),
			d.CreatedByName,
			formatTime(d.UpdatedAt),
			p.status(d.Notarized, "notarized", "pending"),
		})
	}
	return rows
}

func (c *cli) documentsCreateCmd() *cobra.Command {
	var (
		req     entities.CreateDocumentRequest
		docType string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document",
		Args:  cobra.NoArgs,
		RunE: c.authed(func(ctx context.Context, args []string) error {
			t, err := valueobjects.ParseDocumentType(strings.ToUpper(docType))
			if err != nil {
				return err
			}
			req.DocType = t

			doc, err := c.documents.CreateDocument(ctx, c.session, req)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(doc, func() {
				p.linef("Created %s %q (%s)", string(doc.DocType), doc.Title, doc.ID)
			})
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Title, "title", "", "document title")
	flags.StringVar(&docType, "type", "", "PROTOCOL, ICF, AMENDMENT, SAE_REPORT or AUDIT_REPORT")
	flags.StringVar(&req.InitialContent, "content", "", "initial content")
	for _, name := range []string{"title", "type", "content"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) documentsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a document with its history and transclusions",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.documents.Detail(ctx, c.session, args[0])
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view, func() {
				doc := view.Document
				p.heading(doc.Title)
				p.field("ID", doc.ID)
				p.field("Type", string(doc.DocType))
				p.field("Author", doc.CreatedByName)
				p.field("Version", "v"+itoa(doc.CurrentVersionNumber))
				p.field("Ledger", p.status(view.VerificationStatus == services.VerificationVerified, "verified", view.VerificationStatus))
				if view.Content != nil {
					p.field("Content", view.Content.Display())
				}
				p.field("Versions", itoa(len(view.Versions)))
				p.field("Transcluded from", itoa(len(view.Incoming))+" document(s)")
				p.field("Transcluded into", itoa(len(view.Outgoing))+" document(s)")
				p.field("You can edit", strconv.FormatBool(view.CanEdit))
			})
		}),
	}
}

func (c *cli) documentsUpdateCmd() *cobra.Command {
	var req entities.UpdateDocumentRequest

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a document's content with a new version",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			doc, err := c.documents.UpdateDocument(ctx, c.session, args[0], req)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(doc, func() {
				p.linef("Updated %q to v%d", doc.Title, doc.CurrentVersionNumber)
			})
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Title, "title", "", "document title")
	flags.StringVar(&req.Content, "content", "", "new content")
	flags.StringVar(&req.ChangeDescription, "message", "", "change description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func (c *cli) documentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document you created",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			if err := c.documents.DeleteDocument(ctx, c.session, args[0]); err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(map[string]string{"deleted": args[0]}, func() {
				p.linef("Deleted %s", args[0])
			})
		}),
	}
}

func (c *cli) documentsVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <id>",
		Short: "List a document's versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.documents.Detail(ctx, c.session, args[0])
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view.Versions, func() {
				rows := make([][]string, 0, len(view.Versions))
				for _, v := range view.Versions {
					rows = append(rows, []string{
						"v" + itoa(v.VersionNumber),
						v.ID,
						v.AuthorName(),
						formatTime(v.CreatedAt.Time),
						shortHash(v.ContentHash),
						p.status(v.IotaTxID != "", "notarized", "pending"),
					})
				}
				p.table([]string{"VERSION", "ID", "AUTHOR", "CREATED", "HASH", "LEDGER"}, rows)
			})
		}),
	}
}

func (c *cli) documentsTranscludeCmd() *cobra.Command {
	var req entities.TranscludeRequest

	cmd := &cobra.Command{
		Use:   "transclude <id>",
		Short: "Include content of another document in this one",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			t, err := c.documents.Transclude(ctx, c.session, args[0], req)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(t, func() {
				p.linef("Transcluded %s into %s (%s)", t.SourceID(), t.TargetID(), t.ID)
			})
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&req.SourceDocumentID, "source", "", "source document id")
	flags.StringVar(&req.SourceNodePath, "source-path", "", "node path in the source")
	flags.StringVar(&req.TargetNodePath, "target-path", "", "node path in the target")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func (c *cli) documentsTransclusionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transclusions <id>",
		Short: "List transclusions into and out of a document",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.documents.Detail(ctx, c.session, args[0])
			if err != nil {
				return err
			}
			result := map[string][]entities.Transclusion{"incoming": view.Incoming, "outgoing": view.Outgoing}

			p := newPrinter(c.out, c.opts.output)
			return p.emit(result, func() {
				p.heading("Incoming")
				p.table([]string{"ID", "FROM", "PATH"}, transclusionRows(view.Incoming, true))
				p.heading("Outgoing")
				p.table([]string{"ID", "TO", "PATH"}, transclusionRows(view.Outgoing, false))
			})
		}),
	}
}

func transclusionRows(ts []entities.Transclusion, incoming bool) [][]string {
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		other, path := t.TargetDocument, t.TargetNodePath
		if incoming {
			other, path = t.SourceDocument, t.SourceNodePath
		}
		name := "?"
		if other != nil {
			name = other.Title
		}
		rows = append(rows, []string{t.ID, name, path})
	}
	return rows
}

func (c *cli) documentsAddSectionCmd() *cobra.Command {
	var (
		req  entities.AddSectionRequest
		kind string
		text string
	)

	cmd := &cobra.Command{
		Use:   "add-section <id>",
		Short: "Append a typed content section",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			k, err := valueobjects.ParseSectionKind(kind)
			if err != nil {
				return err
			}
			req.ContentType = k
			req.Value = text

			doc, err := c.documents.AddSection(ctx, c.session, args[0], req)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(doc, func() {
				p.linef("Added %s section to %q, now v%d", k, doc.Title, doc.CurrentVersionNumber)
			})
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&kind, "type", "STRING", "STRING, INTEGER, IMAGE or TRANSCLUSION")
	flags.StringVar(&text, "value", "", "section value")
	flags.StringVar(&req.ParentNodePath, "parent", "", "parent node path")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (c *cli) documentsStructureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structure <id> <versionId>",
		Short: "Print the node tree of a version",
		Args:  cobra.ExactArgs(2),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.documents.Structure(ctx, c.session, args[0], args[1])
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view.Root, func() {
				for _, line := range view.Lines {
					indent := strings.Repeat("  ", line.Depth)
					suffix := ""
					if line.MaxDepthReached {
						suffix = p.muted.Render(" (truncated)")
					}
					p.linef("%s%s %s%s", indent, p.muted.Render("["+line.Kind+"]"), line.Preview, suffix)
				}
				p.field("Nodes", itoa(view.NodeCount))
			})
		}),
	}
}

func (c *cli) documentsVersionTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version-tree <id>",
		Short: "Show the version ancestry with its layout",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.documents.VersionTree(ctx, c.session, args[0])
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view, func() {
				var walk func(nodes []entities.VersionNode, depth int)
				walk = func(nodes []entities.VersionNode, depth int) {
					for i := range nodes {
						n := &nodes[i]
						indent := strings.Repeat("  ", depth)
						marker := ""
						if n.IsCurrent {
							marker = p.success.Render(" (current)")
						}
						p.linef("%sv%d %s %s%s", indent, n.VersionNumber, n.AuthorName, formatTime(n.CreatedAt.Time), marker)
						walk(n.Children, depth+1)
					}
				}
				walk(view.Trees, 0)
				p.field("Graph", itoa(len(view.Graph.Nodes))+" nodes, "+itoa(len(view.Graph.Edges))+" edges")
			})
		}),
	}
}

func (c *cli) documentsCompareCmd() *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "compare <id>",
		Short: "Show a version next to its predecessor",
		Args:  cobra.ExactArgs(1),
		RunE: c.authed(func(ctx context.Context, args []string) error {
			view, err := c.documents.Compare(ctx, c.session, args[0], version)
			if err != nil {
				return err
			}
			p := newPrinter(c.out, c.opts.output)
			return p.emit(view, func() {
				for _, side := range []services.VersionSide{view.Old, view.New} {
					p.heading("v" + itoa(side.VersionNumber) + " by " + side.AuthorName + ", " + formatTime(side.CreatedAt))
					p.linef("%s", side.Text)
				}
				p.field("Changed", strconv.FormatBool(view.Changed))
			})
		}),
	}
	cmd.Flags().IntVar(&version, "version", 0, "version number to compare with its predecessor (default current)")
	return cmd
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
