package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/labstack/gommon/log"

	"github.com/himanshub16/dancevote/display"
	"github.com/himanshub16/dancevote/vote"
)

const pageTitle = "Dance floor"

// pageRenderer lets echo render the viewer page through c.Render.
type pageRenderer struct {
	page *display.Page
}

func (r pageRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	pd, ok := data.(display.PageData)
	if !ok {
		return errors.New("page data expected")
	}
	return r.page.Render(w, pd)
}

type viewer struct {
	list      *display.List
	submitter *vote.Submitter
	refresh   int
}

func newViewerRouter(v *viewer, level log.Lvl) *echo.Echo {
	r := echo.New()
	r.HideBanner = true
	r.Logger.SetLevel(level)
	r.Renderer = pageRenderer{page: display.NewPage()}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("/", v.pageHandler)
	r.GET("/blocks", v.blocksHandler)
	r.POST("/press", v.pressHandler)
	return r
}

func (v *viewer) pageHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "page", display.PageData{
		Title:   pageTitle,
		Refresh: v.refresh,
		Blocks:  v.list.Blocks(),
		Enabled: v.submitter.Enabled,
	})
}

func (v *viewer) blocksHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, v.list.Blocks())
}

// pressHandler activates one rating control. Presses on a control that is
// cooling down are dropped silently; the page simply comes back.
func (v *viewer) pressHandler(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing form data",
		})
	}
	intent, err := vote.ParseForm(form)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": err.Error(),
		})
	}

	id := form.Get("control")
	if id != display.ControlID(intent) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "control does not match vote",
		})
	}
	if !v.list.Shows(intent.SongHash) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "song not on the dance floor",
		})
	}

	if !v.submitter.Press(id, intent) {
		log.Debugf("press on %s ignored while cooling down", id)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
