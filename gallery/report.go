package gallery

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Keyword is the literal substring the post search matches on.
const Keyword = "[gallery"

// DefaultPerPage is the page size when none is configured.
const DefaultPerPage = 10

// PostQuery is a page request to the post repository.
type PostQuery struct {
	Keyword  string
	PostType string
	Page     int // 1-based
	PerPage  int
	Sort     SortSpec
}

// PostRepository searches stored posts.
type PostRepository interface {
	Search(ctx context.Context, q PostQuery) (total int, posts []Post, err error)
}

// AssetRegistry provides attachment metadata.
type AssetRegistry interface {
	Lookup(ctx context.Context, id AssetID) (Asset, error)
	// Attachments lists the image attachments of a post.
	Attachments(ctx context.Context, postID int64) ([]AssetID, error)
}

// ReportQuery selects the page and order of a report.
type ReportQuery struct {
	Page int
	Sort SortSpec
}

// Diagnostic is one rendition or asset failure surfaced for operators.
type Diagnostic struct {
	PostID    int64   `json:"post_id"`
	AssetID   AssetID `json:"asset_id"`
	Rendition string  `json:"rendition"`
	Path      string  `json:"path,omitempty"`
	Reason    string  `json:"reason"`
}

// Report is one generated page.
type Report struct {
	Rows        []PostGalleryRow
	Columns     []Column
	Pagination  Pagination
	Sort        SortSpec
	Diagnostics []Diagnostic
}

// Generator fetches a page of posts and builds their rows.
type Generator struct {
	Posts    PostRepository
	Assets   AssetRegistry
	Resolver *Resolver
	PerPage  int
	// Workers bounds how many rows are built at once. Values below 2
	// build rows sequentially.
	Workers int
	Logger  *zap.Logger
}

// Generate builds the requested report page. Only a repository search
// failure is returned as an error; everything downstream degrades to
// zero counts plus diagnostics.
func (g *Generator) Generate(ctx context.Context, q ReportQuery) (*Report, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	perPage := g.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	sort := q.Sort
	if sort.Field == "" {
		sort = DefaultSort
	}

	total, posts, err := g.Posts.Search(ctx, PostQuery{
		Keyword:  Keyword,
		PostType: "post",
		Page:     page,
		PerPage:  perPage,
		Sort:     sort,
	})
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	resolver := g.Resolver
	if resolver == nil {
		resolver = &Resolver{}
	}
	cache := newSizeCache(g.Assets, resolver, logger)
	rows := make([]PostGalleryRow, len(posts))

	if g.Workers < 2 {
		for i := range posts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rows[i] = g.buildRow(ctx, posts[i], cache, logger)
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.Workers)
		for i := range posts {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				rows[i] = g.buildRow(egCtx, posts[i], cache, logger)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}
	// Lookups made after cancellation report zero bytes, so the rows
	// cannot be trusted.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{
		Rows:    rows,
		Columns: DefaultColumns(),
		Pagination: Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: total,
			TotalPages: (total + perPage - 1) / perPage,
		},
		Sort: sort,
	}
	for _, row := range rows {
		for _, e := range row.Errors {
			rep.Diagnostics = append(rep.Diagnostics, Diagnostic{
				PostID:    row.PostID,
				AssetID:   e.AssetID,
				Rendition: e.Name,
				Path:      e.Path,
				Reason:    e.Reason,
			})
			logger.Debug("rendition unreadable",
				zap.Int64("post_id", row.PostID),
				zap.Int64("asset_id", int64(e.AssetID)),
				zap.String("rendition", e.Name),
				zap.String("path", e.Path),
				zap.String("reason", e.Reason))
		}
	}
	return rep, nil
}

func (g *Generator) buildRow(ctx context.Context, post Post, cache *sizeCache, logger *zap.Logger) PostGalleryRow {
	fallback := func(postID int64) []AssetID {
		ids, err := g.Assets.Attachments(ctx, postID)
		if err != nil {
			logger.Warn("list attachments failed", zap.Int64("post_id", postID), zap.Error(err))
			return nil
		}
		return ids
	}
	directives := Extract(post.ID, post.Content, fallback)
	return BuildRow(post, directives, func(id AssetID) AssetSizeReport {
		return cache.get(ctx, id)
	})
}
