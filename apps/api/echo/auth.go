package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/owner"
	"github.com/parikshahq/pariksha/core/student"
)

// Principal roles. A token carries exactly one.
const (
	RoleOwner     = "owner"
	RoleInstitute = "institute"
	RoleStudent   = "student"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "principalToken",
		Claims:        new(Claims),
	}
	contextPrincipalKey = "principal"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the principal's id; Role says which store it lives in.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Role         string `json:"role,omitempty"`
}

func getClaims(subjectID, role string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   subjectID,
			Audience:  "Pariksha",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// authenticateOwner resolves the combined owner-or-institute login: the
// email is looked up in the owner store first, then in the institutes.
func authenticateOwner(ctx echo.Context, email, pwd string, ownSvc *owner.Service, instSvc *institute.Service) (*Claims, error) {
	reqCtx := ctx.Request().Context()

	own, err := ownSvc.GetByEmail(reqCtx, email)
	if err == nil {
		if err = own.CheckPassword(pwd); err != nil {
			return nil, errAuthenticationFailed
		}
		return getClaims(own.ID, RoleOwner), nil
	}
	if err != owner.ErrNotFound {
		return nil, errors.Wrap(err, "finding owner by email")
	}

	inst, err := instSvc.GetByEmail(reqCtx, email)
	if err != nil {
		if err == institute.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding institute by email")
	}
	if err = inst.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	return getClaims(inst.ID, RoleInstitute), nil
}

// authenticateStudent resolves a student by their institute's unique ID and
// their roll number; roll numbers are only unique within an institute.
func authenticateStudent(ctx echo.Context, uniqueID, rollNumber, pwd string, instSvc *institute.Service, stuSvc *student.Service) (*Claims, error) {
	reqCtx := ctx.Request().Context()

	inst, err := instSvc.GetByUniqueID(reqCtx, uniqueID)
	if err != nil {
		if err == institute.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding institute by unique ID")
	}

	stu, err := stuSvc.GetByRollNumber(reqCtx, inst.ID, rollNumber)
	if err != nil {
		if err == student.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding student by roll number")
	}
	if err = stu.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	return getClaims(stu.ID, RoleStudent), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// roleMiddleware rejects tokens carrying any other role.
func roleMiddleware(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// The context*, helpers resolve the live principal record. A token whose
// principal was deleted after issuance fails with 401.

func contextOwner(ctx echo.Context, svc *owner.Service) (owner.Owner, error) {
	if own, ok := ctx.Get(contextPrincipalKey).(owner.Owner); ok {
		return own, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return owner.Owner{}, err
	}
	own, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if err == owner.ErrNotFound {
			return owner.Owner{}, errUnauthorized
		}
		return owner.Owner{}, errors.Wrap(err, "finding owner by ID")
	}
	ctx.Set(contextPrincipalKey, own)
	return own, nil
}

func contextInstitute(ctx echo.Context, svc *institute.Service) (institute.Institute, error) {
	if inst, ok := ctx.Get(contextPrincipalKey).(institute.Institute); ok {
		return inst, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return institute.Institute{}, err
	}
	inst, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if err == institute.ErrNotFound {
			return institute.Institute{}, errUnauthorized
		}
		return institute.Institute{}, errors.Wrap(err, "finding institute by ID")
	}
	ctx.Set(contextPrincipalKey, inst)
	return inst, nil
}

func contextStudent(ctx echo.Context, svc *student.Service) (student.Student, error) {
	if stu, ok := ctx.Get(contextPrincipalKey).(student.Student); ok {
		return stu, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return student.Student{}, err
	}
	stu, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if err == student.ErrNotFound {
			return student.Student{}, errUnauthorized
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	ctx.Set(contextPrincipalKey, stu)
	return stu, nil
}

// Token refresh

type authApi struct {
	opts *Options
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := authApi{opts: opts}
	g.POST("/token-refresh", api.refreshToken, jwt)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	// the principal must still exist
	switch claims.Role {
	case RoleOwner:
		_, err = contextOwner(ctx, api.opts.OwnerSvc)
	case RoleInstitute:
		_, err = contextInstitute(ctx, api.opts.InstituteSvc)
	case RoleStudent:
		_, err = contextStudent(ctx, api.opts.StudentSvc)
	default:
		err = errUnauthorized
	}
	if err != nil {
		return err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	token, err := GenerateToken(getClaims(claims.Subject, claims.Role, claims.OrigIssuedAt))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Role: claims.Role})
}
