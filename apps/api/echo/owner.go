package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/owner"
)

var errInstNotFoundInCtx = errors.New("institute object not found in echo.Context")

type ownerApi struct {
	ownSvc    *owner.Service
	instSvc   *institute.Service
	fileStore core.FileStore
}

func registerOwnerAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := ownerApi{
		ownSvc:    opts.OwnerSvc,
		instSvc:   opts.InstituteSvc,
		fileStore: opts.FileStore,
	}

	og := g.Group("/owner")

	// un-authed endpoints
	og.POST("/login", api.login)
	if core.Conf.Debug {
		// dev-only door; production owners are seeded via the admin CLI
		og.POST("/bootstrap", api.bootstrap)
	}

	// authed endpoints
	ag := og.Group("", jwt, roleMiddleware(RoleOwner))
	ig := ag.Group("/institutes")
	ig.POST("", api.createInstitute)
	ig.GET("", api.queryInstitutes)

	// detail endpoints
	dg := ig.Group("/:id", api.ctxInstituteMiddleware())
	dg.PUT("", api.updateInstitute)
	dg.DELETE("", api.destroyInstitute)
}

// Handlers

// login is the combined owner-or-institute door: owners and institutes share
// it and the issued token says which one matched.
func (api *ownerApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticateOwner(ctx, data.Email, data.Password, api.ownSvc, api.instSvc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Role: claims.Role})
}

func (api *ownerApi) bootstrap(ctx echo.Context) error {
	var data owner.NewOwner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOwner")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	own, err := api.ownSvc.Bootstrap(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, own)
}

func (api *ownerApi) createInstitute(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data institute.NewInstitute
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstitute")
	}
	if err := data.Validate(reqCtx, api.instSvc); err != nil {
		return err
	}

	var err error
	if data.LogoURL, err = storeUpload(ctx, api.fileStore, "logo"); err != nil {
		return err
	}
	if data.ISOCertURL, err = storeUpload(ctx, api.fileStore, "iso_cert"); err != nil {
		return err
	}

	inst, err := api.instSvc.Create(reqCtx, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inst)
}

func (api *ownerApi) queryInstitutes(ctx echo.Context) error {
	institutes, err := api.instSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying institutes")
	}
	return ctx.JSON(http.StatusOK, institutes)
}

func (api *ownerApi) updateInstitute(ctx echo.Context) error {
	inst, ok := ctx.Get("object").(institute.Institute)
	if !ok {
		return errors.Wrap(errInstNotFoundInCtx, "retrieving object from context")
	}
	reqCtx := ctx.Request().Context()

	var data institute.UpdateInstitute
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInstitute")
	}
	if err := data.Validate(reqCtx, inst, api.instSvc); err != nil {
		return err
	}

	var err error
	if data.LogoURL, err = storeUpload(ctx, api.fileStore, "logo"); err != nil {
		return err
	}
	if data.ISOCertURL, err = storeUpload(ctx, api.fileStore, "iso_cert"); err != nil {
		return err
	}

	inst, err = api.instSvc.Update(reqCtx, inst, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *ownerApi) destroyInstitute(ctx echo.Context) error {
	inst, ok := ctx.Get("object").(institute.Institute)
	if !ok {
		return errors.Wrap(errInstNotFoundInCtx, "retrieving object from context")
	}

	if err := api.instSvc.Delete(ctx.Request().Context(), inst.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ownerApi) ctxInstituteMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			inst, err := api.instSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if err == institute.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding institute by ID")
			}
			ctx.Set("object", inst)
			return next(ctx)
		}
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}
