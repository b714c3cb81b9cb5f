package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/daftari/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *attendance.Service,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)

	ag.GET("", api.querySheet)
	ag.POST("", api.mark, staffMiddleware())
	ag.GET("/students/:studentID", api.queryHistory)
	ag.GET("/summary/:studentID", api.summarize)

	dg := ag.Group("/:id", staffMiddleware())
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Mark(data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}

	return ctx.JSON(http.StatusCreated, entry)
}

// querySheet returns the attendance sheet for the `date` query param (default: today).
func (api *attendanceApi) querySheet(ctx echo.Context) error {
	date := attendance.NowFunc()
	if raw := ctx.QueryParam("date"); raw != "" {
		var err error
		if date, err = time.Parse("2006-01-02", raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		}
	}

	entries, err := api.svc.SheetForDate(date)
	if err != nil {
		return errors.Wrap(err, "querying attendance sheet")
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) queryHistory(ctx echo.Context) error {
	entries, err := api.svc.StudentHistory(ctx.Param("studentID"))
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) summarize(ctx echo.Context) error {
	summary, err := api.svc.Summarize(ctx.Param("studentID"))
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	entry, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding entry by ID")
	}

	var data attendance.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(entry, api.validate); err != nil {
		return err
	}

	entry, err = api.svc.Update(entry.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}

	return ctx.JSON(http.StatusOK, entry)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
