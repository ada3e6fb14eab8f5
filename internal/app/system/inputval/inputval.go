// Package inputval validates decoded request bodies with go-playground's
// validator and turns failures into per-field English messages keyed by the
// JSON field path (for example "courses[1].quarter").
package inputval

import (
	"reflect"
	"strings"

	"github.com/dalemusser/yar/internal/domain/academicyear"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// custom tags
const (
	tagNotBlank        = "notblank"
	tagObjectID        = "objectid"
	tagQuarter         = "quarter"
	tagPublicationType = "publication_type"
	tagGrantType       = "grant_type"
	tagDegreeType      = "degree_type"
	tagReportStatus    = "report_status"
	tagUserRole        = "user_role"
	tagAcademicYear    = "academic_year"
	tagCommittee       = "committee_only"
	tagStandard        = "standard_only"
	tagCommitteeField  = "committee_field"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(tagNotBlank, notBlank)
	_ = validate.RegisterValidation(tagObjectID, objectID)
	_ = validate.RegisterValidation(tagQuarter, oneOf(models.Quarters))
	_ = validate.RegisterValidation(tagPublicationType, oneOf(models.PublicationTypes))
	_ = validate.RegisterValidation(tagGrantType, oneOf(models.GrantTypes))
	_ = validate.RegisterValidation(tagDegreeType, oneOf(models.DegreeTypes))
	_ = validate.RegisterValidation(tagReportStatus, oneOf(models.AllStatuses))
	_ = validate.RegisterValidation(tagUserRole, oneOf([]string{models.RoleFaculty, models.RoleAdmin}))
	_ = validate.RegisterValidation(tagAcademicYear, func(fl validator.FieldLevel) bool {
		return academicyear.Valid(fl.Field().String())
	})
	validate.RegisterStructValidation(serviceStructValidation, models.ServiceEntry{})

	registerMessages(map[string]string{
		tagNotBlank:        "{0} cannot be blank",
		tagObjectID:        "{0} must be a valid id",
		tagQuarter:         "{0} must be one of " + strings.Join(models.Quarters, ", "),
		tagPublicationType: "{0} must be one of " + strings.Join(models.PublicationTypes, ", "),
		tagGrantType:       "{0} must be one of " + strings.Join(models.GrantTypes, ", "),
		tagDegreeType:      "{0} must be one of " + strings.Join(models.DegreeTypes, ", "),
		tagReportStatus:    "{0} must be one of " + strings.Join(models.AllStatuses, ", "),
		tagUserRole:        "{0} must be faculty or admin",
		tagAcademicYear:    `{0} must look like "2024-2025"`,
		tagCommittee:       "{0} is required for committee entries",
		tagStandard:        "{0} is not allowed on committee entries",
		tagCommitteeField:  "{0} is only allowed on committee entries",
	})
}

func registerMessages(msgs map[string]string) {
	for tag, text := range msgs {
		text := text
		_ = validate.RegisterTranslation(tag, translator,
			func(ut ut.Translator) error { return ut.Add(tag, text, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, _ := ut.T(fe.Tag(), fe.Field())
				return msg
			})
	}
}

// FieldError is one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the failures for one value, in struct order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether validation failed.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// First returns the first message, or "".
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Fields maps field path to message. The first message per field wins.
func (r *Result) Fields() map[string]string {
	if !r.HasErrors() {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Validate checks v against its validate tags.
func Validate(v any) *Result {
	res := &Result{}
	err := validate.Struct(v)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fe.Translate(translator),
		})
	}
	return res
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// IsValidEmail reports whether s is a single bare address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return validate.Var(s, "email") == nil
}

// IsValidObjectID reports whether s parses as a Mongo ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

/* ------------------------------ custom rules ------------------------------ */

func notBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}

func objectID(fl validator.FieldLevel) bool {
	return IsValidObjectID(fl.Field().String())
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}
}

// serviceStructValidation enforces the two shapes a service entry can take.
func serviceStructValidation(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(models.ServiceEntry)
	if !ok {
		return
	}
	if !s.IsCommittee() {
		if s.CommitteeName != "" {
			sl.ReportError(s.CommitteeName, "committee_name", "CommitteeName", tagCommitteeField, "")
		}
		if s.DegreeType != "" {
			sl.ReportError(s.DegreeType, "degree_type", "DegreeType", tagCommitteeField, "")
		}
		if len(s.Students) > 0 {
			sl.ReportError(s.Students, "students", "Students", tagCommitteeField, "")
		}
		return
	}
	if strings.TrimSpace(s.CommitteeName) == "" {
		sl.ReportError(s.CommitteeName, "committee_name", "CommitteeName", tagCommittee, "")
	}
	if !contains(models.DegreeTypes, s.DegreeType) {
		if s.DegreeType == "" {
			sl.ReportError(s.DegreeType, "degree_type", "DegreeType", tagCommittee, "")
		} else {
			sl.ReportError(s.DegreeType, "degree_type", "DegreeType", tagDegreeType, "")
		}
	}
	if s.Role != "" {
		sl.ReportError(s.Role, "role", "Role", tagStandard, "")
	}
	if s.Department != "" {
		sl.ReportError(s.Department, "department", "Department", tagStandard, "")
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
