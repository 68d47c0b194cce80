package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so issue paths match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// accepted: the boolean must be literally true.
	_ = v.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	})
	return v
}

// User is the base shape of a user record.
type User struct {
	ID       string `json:"id" validate:"required,uuid"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	Gender   string `json:"gender" validate:"required"`
}

// CreateUserRequest is the base shape without id, plus password confirmation
// and terms acceptance.
type CreateUserRequest struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,min=8,max=100"`
	Gender          string `json:"gender" validate:"required"`
	Terms           *bool  `json:"terms" validate:"required,accepted"`
}

// UpdateUserRequest is the base shape without id where every field is
// optional. A nil field is left untouched on the stored record.
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=100"`
	Gender   *string `json:"gender" validate:"omitempty,min=1"`
}

// Empty reports whether the update carries no fields at all.
func (r UpdateUserRequest) Empty() bool {
	return r.Username == nil && r.Email == nil && r.Password == nil && r.Gender == nil
}

// Struct validates obj against its shape and returns the ordered issues, or
// nil when obj is valid.
func Struct(obj any) Issues {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Issues{{Code: CodeCustom, Path: []string{}, Message: err.Error()}}
	}

	issues := make(Issues, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, fieldIssue(fe))
	}
	return issues
}

// CreateUser validates a creation body, including the password confirmation.
func CreateUser(req CreateUserRequest) Issues {
	if issues := Struct(req); issues != nil {
		return issues
	}
	if req.Password != req.ConfirmPassword {
		return Issues{PasswordMismatch}
	}
	return nil
}

// ID checks that raw is a syntactically valid user id.
func ID(raw string) Issues {
	if err := validate.Var(raw, "required,uuid"); err != nil {
		return Issues{{Code: CodeInvalidString, Path: []string{"id"}, Message: "Invalid uuid"}}
	}
	return nil
}

// Pagination parses the page and limit query parameters, applying defaults
// when they are absent.
func Pagination(rawPage, rawLimit string) (page, limit int, issues Issues) {
	page, pageIssue := positiveInt("page", rawPage, DefaultPage, "Page cannot be less than 1.")
	limit, limitIssue := positiveInt("limit", rawLimit, DefaultLimit, "Limit cannot be less than 1.")
	for _, is := range []*Issue{pageIssue, limitIssue} {
		if is != nil {
			issues = append(issues, *is)
		}
	}
	return page, limit, issues
}

func positiveInt(field, raw string, fallback int, tooSmall string) (int, *Issue) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Issue{
			Code:    CodeInvalidType,
			Path:    []string{field},
			Message: "Expected integer, received " + strconv.Quote(raw),
		}
	}
	if n < 1 {
		is := Custom(field, tooSmall)
		return 0, &is
	}
	return n, nil
}

// DecodeError converts a JSON decoding failure of a request body into issues.
func DecodeError(err error) Issues {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := []string{}
		if typeErr.Field != "" {
			path = strings.Split(typeErr.Field, ".")
		}
		return Issues{{
			Code:    CodeInvalidType,
			Path:    path,
			Message: fmt.Sprintf("Expected %s, received %s", jsonKind(typeErr.Type), typeErr.Value),
		}}
	}
	return Issues{{Code: CodeInvalidType, Path: []string{}, Message: "Malformed JSON body"}}
}

func fieldIssue(fe validator.FieldError) Issue {
	path := strings.Split(fe.Namespace(), ".")
	if len(path) > 1 {
		path = path[1:]
	}

	switch fe.Tag() {
	case "required":
		return Issue{Code: CodeInvalidType, Path: path, Message: "Required"}
	case "email":
		return Issue{Code: CodeInvalidString, Path: path, Message: "Invalid email"}
	case "uuid":
		return Issue{Code: CodeInvalidString, Path: path, Message: "Invalid uuid"}
	case "min":
		return Issue{Code: CodeTooSmall, Path: path, Message: "String must contain at least " + fe.Param() + " character(s)"}
	case "max":
		return Issue{Code: CodeTooBig, Path: path, Message: "String must contain at most " + fe.Param() + " character(s)"}
	case "accepted":
		return Issue{Code: CodeCustom, Path: path, Message: "You must accept terms and conditions."}
	default:
		return Issue{Code: CodeCustom, Path: path, Message: "Invalid value"}
	}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
