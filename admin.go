package spacetraveling

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminRevalidate regenerates one path, or every held page when no
// path is given.
func (a *App) handleAdminRevalidate(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()
	path := strings.TrimSpace(c.FormValue("path"))

	var msg string
	if path == "" {
		failed, err := a.revalidateAll(ctx)
		if err != nil {
			return err
		}
		msg = "Revalidated all pages."
		if failed > 0 {
			msg = fmt.Sprintf("Revalidated all pages, %d failed.", failed)
		}
	} else {
		err := a.revalidatePath(ctx, path)
		switch {
		case err == nil:
			msg = "Revalidated " + path
		case errors.Is(err, prismic.ErrNotFound):
			msg = path + " no longer exists and was removed."
		case errors.Is(err, ErrPageNotFound):
			msg = "Unknown path " + path
		default:
			c.Logger().Errorf("revalidate %s: %v", path, err)
			msg = "Revalidating " + path + " failed."
		}
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	pages, err := a.Cache.Pages()
	if err != nil {
		return err
	}
	now := a.now()
	rows := make([]views.PageRow, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, views.PageRow{
			Path:        p.Path,
			State:       p.State,
			GeneratedAt: p.GeneratedAt,
			Stale:       p.Stale(now),
		})
	}
	return Render(c, a.Views.AdminDashboard(rows, msg, CsrfToken(c)))
}
