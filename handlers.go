package galleryreport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/galleryreport/gallery"
	"github.com/eringen/galleryreport/views"
)

// reportQuery reads paged, orderby and order from the request. Invalid
// sort values fall back to the default order.
func reportQuery(c echo.Context) (int, gallery.SortSpec) {
	page, err := strconv.Atoi(c.QueryParam("paged"))
	if err != nil || page < 1 {
		page = 1
	}
	sort, err := gallery.ParseSort(c.QueryParam("orderby"), c.QueryParam("order"))
	if err != nil {
		sort = gallery.DefaultSort
	}
	return page, sort
}

func (a *App) handleGalleries(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	page, sort := reportQuery(c)
	rep, err := a.Report(c.Request().Context(), page, sort)
	if err != nil {
		return err
	}
	tbl := views.NewHTMLTable(a.Config.URL, "/admin/galleries/", rep.Sort)
	tbl.PostURL = "/admin/posts/"
	views.Load(tbl, rep)
	return Render(c, views.ReportPage(a.Config.Name, CsrfToken(c), tbl))
}

func (a *App) handleGalleriesJSON(c echo.Context) error {
	if !IsAdmin(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	page, sort := reportQuery(c)
	rep, err := a.Report(c.Request().Context(), page, sort)
	if err != nil {
		return err
	}
	tbl := views.NewJSONTable(false)
	views.Load(tbl, rep)
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return tbl.Render(c.Request().Context(), c.Response())
}

type postAttachments struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Date        string          `json:"date"`
	Published   bool            `json:"published"`
	Attachments []gallery.Asset `json:"attachments"`
}

// handlePostAttachments lists a post and every attachment it owns.
func (a *App) handlePostAttachments(c echo.Context) error {
	if !IsAdmin(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid post id"})
	}
	ctx := c.Request().Context()
	post, err := a.Store.GetPost(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		return err
	}
	assets, err := a.Store.ListAttachments(ctx, id)
	if err != nil {
		return err
	}
	if assets == nil {
		assets = []gallery.Asset{}
	}
	return c.JSON(http.StatusOK, postAttachments{
		ID:          post.ID,
		Title:       post.Title,
		Slug:        post.Slug,
		Date:        post.Date,
		Published:   post.Published,
		Attachments: assets,
	})
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	code := http.StatusInternalServerError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		_ = c.String(code, http.StatusText(code))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
