package galleryreport

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/eringen/galleryreport/gallery"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// StoredPost is a post row as persisted.
type StoredPost struct {
	ID        int64
	Slug      string
	Title     string
	Date      string
	Content   string
	PostType  string
	Published bool
}

// Gallery returns the fields the report reads.
func (p StoredPost) Gallery() gallery.Post {
	return gallery.Post{
		ID:      p.ID,
		Title:   p.Title,
		Slug:    p.Slug,
		Date:    p.Date,
		Content: p.Content,
		Link:    "/blog/" + p.Slug + "/",
	}
}

// Store wraps a SQLite database holding posts and their attachments. It
// implements gallery.PostRepository and gallery.AssetRegistry.
type Store struct {
	db *sql.DB
}

var (
	_ gallery.PostRepository = (*Store)(nil)
	_ gallery.AssetRegistry  = (*Store)(nil)
)

const connPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)" +
	"&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// Pragmas go in the DSN so every pooled connection gets them. WAL lets
	// the report read while an import writes; writers wait on the busy
	// timeout instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", path+"?"+connPragmas)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    content TEXT NOT NULL,
    post_type TEXT NOT NULL DEFAULT 'post',
    published INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL DEFAULT 0,
    mime_type TEXT NOT NULL,
    file TEXT NOT NULL,
    filesize INTEGER NOT NULL DEFAULT 0,
    original_image TEXT NOT NULL DEFAULT '',
    menu_order INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS attachments_post ON attachments (post_id, menu_order, id);
CREATE TABLE IF NOT EXISTS attachment_sizes (
    attachment_id INTEGER NOT NULL REFERENCES attachments(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    file TEXT NOT NULL,
    filesize INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (attachment_id, name)
);
`)
	return err
}

// sortColumns maps sort fields to SQL. Anything else is rejected so
// request text never reaches the query.
var sortColumns = map[string]string{
	gallery.ColumnID:    "id",
	gallery.ColumnDate:  "date",
	gallery.ColumnTitle: "title",
}

func orderClause(spec gallery.SortSpec) (string, error) {
	field := spec.Field
	if field == "" {
		field = gallery.ColumnID
	}
	col, ok := sortColumns[field]
	if !ok {
		return "", fmt.Errorf("%w: field %q", gallery.ErrInvalidSort, spec.Field)
	}
	dir := "DESC"
	switch strings.ToLower(spec.Direction) {
	case "", gallery.SortDesc:
	case gallery.SortAsc:
		dir = "ASC"
	default:
		return "", fmt.Errorf("%w: direction %q", gallery.ErrInvalidSort, spec.Direction)
	}
	if col == "id" {
		return "id " + dir, nil
	}
	return col + " " + dir + ", id " + dir, nil
}

// Search returns one page of published posts whose content contains the
// keyword, plus the total number of matches.
func (s *Store) Search(ctx context.Context, q gallery.PostQuery) (int, []gallery.Post, error) {
	order, err := orderClause(q.Sort)
	if err != nil {
		return 0, nil, err
	}
	postType := q.PostType
	if postType == "" {
		postType = "post"
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = gallery.DefaultPerPage
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	const where = `WHERE published = 1 AND post_type = ? AND instr(content, ?) > 0`
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts `+where, postType, q.Keyword).Scan(&total); err != nil {
		return 0, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, title, date, content, post_type, published FROM posts `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		postType, q.Keyword, perPage, (page-1)*perPage)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var posts []gallery.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return 0, nil, err
		}
		posts = append(posts, p.Gallery())
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	return total, posts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(r scanner) (StoredPost, error) {
	var p StoredPost
	var published int
	if err := r.Scan(&p.ID, &p.Slug, &p.Title, &p.Date, &p.Content, &p.PostType, &published); err != nil {
		return StoredPost{}, err
	}
	p.Published = published == 1
	return p, nil
}

// GetPost returns a post by id regardless of published status.
func (s *Store) GetPost(ctx context.Context, id int64) (StoredPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, slug, title, date, content, post_type, published FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// SavePost inserts a post or updates the one with the same slug, and
// returns its id.
func (s *Store) SavePost(ctx context.Context, p StoredPost) (int64, error) {
	if p.PostType == "" {
		p.PostType = "post"
	}
	published := 0
	if p.Published {
		published = 1
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO posts (slug, title, date, content, post_type, published) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET title = excluded.title, date = excluded.date, content = excluded.content,
    post_type = excluded.post_type, published = excluded.published
RETURNING id`,
		p.Slug, p.Title, p.Date, p.Content, p.PostType, published).Scan(&id)
	return id, err
}

// DeletePost removes a post by id. Its attachments are kept and detached.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `UPDATE attachments SET post_id = 0 WHERE post_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveAttachment inserts an attachment with its renditions and returns
// the stored asset with its new id.
func (s *Store) SaveAttachment(ctx context.Context, a gallery.Asset, menuOrder int) (gallery.Asset, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return gallery.Asset{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO attachments (post_id, mime_type, file, filesize, original_image, menu_order) VALUES (?, ?, ?, ?, ?, ?)`,
		a.PostID, a.MimeType, a.File, a.FileSize, a.OriginalImage, menuOrder)
	if err != nil {
		return gallery.Asset{}, fmt.Errorf("insert attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return gallery.Asset{}, err
	}
	for i, r := range a.Renditions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attachment_sizes (attachment_id, name, file, filesize, position) VALUES (?, ?, ?, ?, ?)`,
			id, r.Name, r.File, r.FileSize, i); err != nil {
			return gallery.Asset{}, fmt.Errorf("insert rendition %s: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return gallery.Asset{}, err
	}
	a.ID = gallery.AssetID(id)
	return a, nil
}

// Lookup returns attachment metadata, or gallery.ErrAssetNotFound.
func (s *Store) Lookup(ctx context.Context, id gallery.AssetID) (gallery.Asset, error) {
	a := gallery.Asset{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT post_id, mime_type, file, filesize, original_image FROM attachments WHERE id = ?`, id).
		Scan(&a.PostID, &a.MimeType, &a.File, &a.FileSize, &a.OriginalImage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gallery.Asset{}, fmt.Errorf("%w: %d", gallery.ErrAssetNotFound, id)
		}
		return gallery.Asset{}, err
	}
	if a.Renditions, err = s.renditions(ctx, id); err != nil {
		return gallery.Asset{}, err
	}
	return a, nil
}

func (s *Store) renditions(ctx context.Context, id gallery.AssetID) ([]gallery.Rendition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, file, filesize FROM attachment_sizes WHERE attachment_id = ? ORDER BY position, name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []gallery.Rendition
	for rows.Next() {
		var r gallery.Rendition
		if err := rows.Scan(&r.Name, &r.File, &r.FileSize); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAttachments returns every attachment of a post, of any MIME type,
// with its renditions, in menu order.
func (s *Store) ListAttachments(ctx context.Context, postID int64) ([]gallery.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, mime_type, file, filesize, original_image FROM attachments
		 WHERE post_id = ? ORDER BY menu_order ASC, id ASC`, postID)
	if err != nil {
		return nil, err
	}
	var assets []gallery.Asset
	for rows.Next() {
		var a gallery.Asset
		if err := rows.Scan(&a.ID, &a.PostID, &a.MimeType, &a.File, &a.FileSize, &a.OriginalImage); err != nil {
			rows.Close()
			return nil, err
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range assets {
		if assets[i].Renditions, err = s.renditions(ctx, assets[i].ID); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// Attachments lists the image attachments of a post in gallery order.
func (s *Store) Attachments(ctx context.Context, postID int64) ([]gallery.AssetID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM attachments WHERE post_id = ? AND mime_type LIKE 'image/%' ORDER BY menu_order ASC, id ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []gallery.AssetID
	for rows.Next() {
		var id gallery.AssetID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NextMenuOrder returns the menu_order for a new attachment of postID.
func (s *Store) NextMenuOrder(ctx context.Context, postID int64) (int, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(menu_order) FROM attachments WHERE post_id = ?`, postID).Scan(&n); err != nil {
		return 0, err
	}
	if !n.Valid {
		return 0, nil
	}
	return int(n.Int64) + 1, nil
}
