package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/galleryreport"
	"github.com/eringen/galleryreport/gallery"
	"github.com/eringen/galleryreport/views"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin gallery report over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(g)
			if err != nil {
				return err
			}
			defer closeApp(app)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- app.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			app.Logger.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.Shutdown(sctx); err != nil {
				return err
			}
			return <-errc
		},
	}
}

func newReportCmd(g *globalFlags) *cobra.Command {
	var (
		page    int
		orderby string
		order   string
		format  string
		errs    bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print one page of the gallery report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sort, err := gallery.ParseSort(orderby, order)
			if err != nil {
				return err
			}
			r, err := newRenderer(format, sort, errs)
			if err != nil {
				return err
			}

			app, err := openApp(g)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if html, ok := r.(*views.HTMLTable); ok {
				html.SiteURL = app.Config.URL
			}
			rep, err := app.Report(cmd.Context(), page, sort)
			if err != nil {
				return err
			}
			views.Load(r, rep)
			return r.Render(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&orderby, "orderby", gallery.DefaultSort.Field, "sort column")
	cmd.Flags().StringVar(&order, "order", gallery.DefaultSort.Direction, "sort direction (asc or desc)")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json or html)")
	cmd.Flags().BoolVar(&errs, "errors", false, "list unreadable renditions under a text table")
	return cmd
}

func newRenderer(format string, sort gallery.SortSpec, showErrors bool) (views.ReportRenderer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		t := views.NewTextTable()
		t.ShowErrors = showErrors
		return t, nil
	case "json":
		return views.NewJSONTable(true), nil
	case "html":
		return views.NewHTMLTable("", "", sort), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func newImportCmd(g *globalFlags) *cobra.Command {
	var postID int64
	cmd := &cobra.Command{
		Use:   "import --post ID FILE...",
		Short: "Import images as attachments of a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if postID < 1 {
				return fmt.Errorf("--post is required")
			}
			app, err := openApp(g)
			if err != nil {
				return err
			}
			defer closeApp(app)

			for _, name := range args {
				asset, err := importFile(cmd.Context(), app, postID, name)
				if err != nil {
					return fmt.Errorf("import %s: %w", name, err)
				}
				app.Logger.Debug("imported", zap.String("file", name), zap.Int64("attachment", int64(asset.ID)))
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> attachment %d (%s, %d renditions)\n",
					name, asset.ID, asset.File, len(asset.Renditions))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&postID, "post", 0, "id of the post the images belong to")
	return cmd
}

func importFile(ctx context.Context, app *galleryreport.App, postID int64, name string) (gallery.Asset, error) {
	f, err := os.Open(name)
	if err != nil {
		return gallery.Asset{}, err
	}
	defer f.Close()
	return app.ImportImage(ctx, postID, f, filepath.Base(name))
}

func newPostCmd(g *globalFlags) *cobra.Command {
	post := &cobra.Command{
		Use:   "post",
		Short: "Manage posts",
	}

	var (
		slug        string
		title       string
		date        string
		contentFile string
		draft       bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create or update a post by slug",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			if slug == "" {
				slug = galleryreport.Slugify(title)
			}
			if date == "" {
				date = time.Now().Format("2006-01-02")
			} else if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			content, err := readContent(cmd.InOrStdin(), contentFile)
			if err != nil {
				return err
			}

			app, err := openApp(g)
			if err != nil {
				return err
			}
			defer closeApp(app)

			id, err := app.Store.SavePost(cmd.Context(), galleryreport.StoredPost{
				Slug:      slug,
				Title:     title,
				Date:      date,
				Content:   content,
				Published: !draft,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "post %d saved (%s)\n", id, slug)
			return nil
		},
	}
	add.Flags().StringVar(&slug, "slug", "", "URL slug (default derived from the title)")
	add.Flags().StringVar(&title, "title", "", "post title")
	add.Flags().StringVar(&date, "date", "", "publication date YYYY-MM-DD (default today)")
	add.Flags().StringVar(&contentFile, "content-file", "", "file holding the post body, - for stdin")
	add.Flags().BoolVar(&draft, "draft", false, "save unpublished")
	post.AddCommand(add)
	post.AddCommand(newPostAttachmentsCmd(g))
	return post
}

func newPostAttachmentsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attachments ID",
		Short: "List the attachments of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			app, err := openApp(g)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if _, err := app.Store.GetPost(cmd.Context(), id); err != nil {
				return fmt.Errorf("post %d: %w", id, err)
			}
			assets, err := app.Store.ListAttachments(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range assets {
				size := a.FileSize
				for _, r := range a.Renditions {
					size += r.FileSize
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%d renditions\t%s\n",
					a.ID, a.MimeType, a.File, len(a.Renditions), humanize.IBytes(uint64(size)))
			}
			if len(assets) == 0 {
				fmt.Fprintf(out, "post %d has no attachments\n", id)
			}
			return nil
		},
	}
}

func readContent(stdin io.Reader, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch name {
	case "":
		return "", fmt.Errorf("--content-file is required")
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}
