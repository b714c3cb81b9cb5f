package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/daftari/core/attendance"
	"github.com/trezcool/daftari/core/student"
	exportsvc "github.com/trezcool/daftari/services/export"
)

var errStudNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	svc       *student.Service
	entrySvc  *attendance.Service
	exportSvc *exportsvc.Service
	validate  *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *student.Service,
	entrySvc *attendance.Service,
	exportSvc *exportsvc.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:       svc,
		entrySvc:  entrySvc,
		exportSvc: exportSvc,
		validate:  validate,
	}

	sg := g.Group("/students", jwt)

	sg.GET("", api.query)
	sg.POST("", api.create, staffMiddleware())
	sg.DELETE("", api.destroyMultiple, staffMiddleware())

	sg.GET("/check", api.checkKeys, staffMiddleware())
	sg.POST("/import", api.importRoster, adminMiddleware())
	sg.GET("/export", api.exportRoster, staffMiddleware())

	dg := sg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())

	g.GET("/classes", api.queryClasses, jwt)
}

// objectMiddleware loads the targeted student into the context.
func (api *studentApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		stud, err := api.svc.GetByID(ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == student.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding student by ID")
		}
		ctx.Set("object", stud)
		return next(ctx)
	}
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	stud, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}

	return ctx.JSON(http.StatusCreated, stud)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()

	studs, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if studs == nil {
		studs = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, studs)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	stud, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, stud)
}

func (api *studentApi) update(ctx echo.Context) error {
	stud, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(stud, api.validate, api.svc); err != nil {
		return err
	}

	stud, err := api.svc.Update(stud.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}

	return ctx.JSON(http.StatusOK, stud)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	stud, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(stud.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if err := api.entrySvc.DeleteForStudent(stud.ID); err != nil {
		return errors.Wrap(err, "deleting student attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	for _, id := range query.IDs {
		if err := api.entrySvc.DeleteForStudent(id); err != nil {
			return errors.Wrap(err, "deleting student attendance")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}

// checkKeys pre-checks roll/admission number availability for forms. The
// record identified by `exclude` is ignored so edit forms can keep their own
// keys.
func (api *studentApi) checkKeys(ctx echo.Context) error {
	var res KeyCheckResponse
	excludeID := ctx.QueryParam("exclude")

	var err error
	if rollNo := ctx.QueryParam("roll_no"); rollNo != "" {
		if res.RollNoTaken, err = api.svc.IsRollNoTaken(rollNo, excludeID); err != nil {
			return errors.Wrap(err, "checking roll number")
		}
	}
	if admissionNo := ctx.QueryParam("admission_no"); admissionNo != "" {
		if res.AdmissionNoTaken, err = api.svc.IsAdmissionNoTaken(admissionNo, excludeID); err != nil {
			return errors.Wrap(err, "checking admission number")
		}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) importRoster(ctx echo.Context) error {
	prev, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	count, err := api.exportSvc.Import(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "importing roster")
	}

	// attendance of students dropped by the import goes with them
	for _, stud := range prev {
		if _, err = api.svc.GetByID(stud.ID); err == nil {
			continue
		}
		if err = api.entrySvc.DeleteForStudent(stud.ID); err != nil {
			return errors.Wrap(err, "deleting student attendance")
		}
	}

	return ctx.JSON(http.StatusOK, ImportResponse{Imported: count})
}

func (api *studentApi) exportRoster(ctx echo.Context) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="students.json"`)
	res.WriteHeader(http.StatusOK)
	return api.exportSvc.Export(res)
}

func (api *studentApi) queryClasses(ctx echo.Context) error {
	studs, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	counts := make(map[string]*ClassGroup)
	for _, stud := range studs {
		key := stud.ClassLevel + "/" + stud.Section
		grp, ok := counts[key]
		if !ok {
			grp = &ClassGroup{ClassLevel: stud.ClassLevel, Section: stud.Section}
			counts[key] = grp
		}
		grp.StudentCount++
	}

	groups := make([]ClassGroup, 0, len(counts))
	for _, grp := range counts {
		groups = append(groups, *grp)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].ClassLevel != groups[j].ClassLevel {
			a, b := groups[i].ClassLevel, groups[j].ClassLevel
			if len(a) != len(b) { // numeric levels: "2" < "10"
				return len(a) < len(b)
			}
			return a < b
		}
		return groups[i].Section < groups[j].Section
	})

	return ctx.JSON(http.StatusOK, groups)
}

type (
	ClassGroup struct {
		ClassLevel   string `json:"class_level"`
		Section      string `json:"section"`
		StudentCount int    `json:"student_count"`
	}

	ImportResponse struct {
		Imported int `json:"imported"`
	}

	KeyCheckResponse struct {
		RollNoTaken      bool `json:"roll_no_taken"`
		AdmissionNoTaken bool `json:"admission_no_taken"`
	}
)
