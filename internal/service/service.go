// Package service holds the authorization core and the artist lifecycle.
//
// Every service is constructed once per process and shared across requests. Persistence calls run
// under a per-call deadline derived from the caller's context; failures reach callers as
// *apperror.AppError values.
package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"musicsocial/internal/logger"
	"musicsocial/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// DefaultQueryTimeout bounds a single service call's persistence work when none is configured.
const DefaultQueryTimeout = 5 * time.Second

// Options carries the ambient collaborators shared by every service.
type Options struct {
	QueryTimeout time.Duration
	Logger       *logger.Logger
	Audit        AuditRecorder
}

type base struct {
	timeout time.Duration
	log     *logger.Logger
	audit   AuditRecorder
}

func newBase(opts Options, component string) base {
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}
	return base{timeout: timeout, log: log.WithComponent(component), audit: opts.Audit}
}

// withDeadline applies the persistence deadline unless the caller's is already tighter.
func (b base) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= b.timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// dbError logs a persistence failure with its operation and entity, and wraps it as DATABASE_ERROR.
// AppErrors pass through untouched.
func (b base) dbError(op string, err error, kv ...interface{}) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	fields := logger.Fields(kv...)
	fields[logger.FieldOperation] = op
	fields[logger.FieldError] = err.Error()
	b.log.Error("persistence failure", fields)
	return apperror.Database(op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func validID(field string, id uint) error {
	if id == 0 {
		return apperror.InvalidField(field, "must be a positive integer")
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// country_code accepts the empty string, which clears the field, or a 2-3 letter code.
	_ = v.RegisterValidation("country_code", func(fl validator.FieldLevel) bool {
		n := len(fl.Field().String())
		return n == 0 || (n >= 2 && n <= 3)
	})
	return v
}

// validateStruct runs the `validate` tags of req and maps the first failure to VALIDATION_ERROR.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation(err.Error())
	}
	first := verrs[0]
	appErr := apperror.InvalidField(first.Field(), describeRule(first))
	if len(verrs) > 1 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		appErr.WithDetail("fields", fields)
	}
	return appErr
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	case "notblank":
		return "must not be blank"
	case "country_code":
		return "must be empty or 2 to 3 characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// invalidate drops cached permission sets after a committed write. A failure leaves the write in
// place and is logged; entries then age out with the backend TTL.
func invalidate(ctx context.Context, log *logger.Logger, c CacheInvalidator) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx); err != nil {
		log.Error("permission cache invalidation failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

// record writes an audit entry for a committed change. kv are alternating detail keys and values.
func (b base) record(ctx context.Context, action, entityType string, entityID uint, kv ...interface{}) {
	if b.audit == nil {
		return
	}
	b.audit.Record(ctx, AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    logger.Fields(kv...),
	})
}
