package types

import "strconv"

// FieldName is a semantic form field that a page input can be mapped to.
type FieldName string

// The closed set of semantic field names produced by the normalizer.
const (
	FieldFirstName       FieldName = "firstName"
	FieldLastName        FieldName = "lastName"
	FieldFullName        FieldName = "fullName"
	FieldEmail           FieldName = "email"
	FieldPhone           FieldName = "phone"
	FieldCity            FieldName = "city"
	FieldState           FieldName = "state"
	FieldZipCode         FieldName = "zipCode"
	FieldCountry         FieldName = "country"
	FieldLinkedIn        FieldName = "linkedin"
	FieldGitHub          FieldName = "github"
	FieldWebsite         FieldName = "website"
	FieldSummary         FieldName = "summary"
	FieldCurrentTitle    FieldName = "currentTitle"
	FieldCurrentCompany  FieldName = "currentCompany"
	FieldYearsExperience FieldName = "yearsExperience"
	FieldSchool          FieldName = "school"
	FieldDegree          FieldName = "degree"
	FieldStudy           FieldName = "field"
	FieldGraduationYear  FieldName = "graduationYear"
	FieldGPA             FieldName = "gpa"
)

// AllFields lists every semantic field in a stable order.
var AllFields = []FieldName{
	FieldFirstName, FieldLastName, FieldFullName,
	FieldEmail, FieldPhone,
	FieldCity, FieldState, FieldZipCode, FieldCountry,
	FieldLinkedIn, FieldGitHub, FieldWebsite,
	FieldSummary, FieldCurrentTitle, FieldCurrentCompany, FieldYearsExperience,
	FieldSchool, FieldDegree, FieldStudy, FieldGraduationYear, FieldGPA,
}

// Valid reports whether f belongs to the closed field set.
func (f FieldName) Valid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// MappedFields is the flat, fill-ready view of a resume.
// It is built fresh for every fill request and never persisted.
type MappedFields struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zipCode"`
	Country         string `json:"country"`
	LinkedIn        string `json:"linkedin"`
	GitHub          string `json:"github"`
	Website         string `json:"website"`
	Summary         string `json:"summary"`
	CurrentTitle    string `json:"currentTitle"`
	CurrentCompany  string `json:"currentCompany"`
	YearsExperience int    `json:"yearsExperience"`
	School          string `json:"school"`
	Degree          string `json:"degree"`
	Field           string `json:"field"`
	GraduationYear  string `json:"graduationYear"`
	GPA             string `json:"gpa"`

	// Skills is display-only; no form rule targets it.
	Skills string `json:"skills"`
}

// Value returns the fill value for a field. Zero years of experience is
// reported as empty so that it is never written into a form.
func (m *MappedFields) Value(name FieldName) string {
	if m == nil {
		return ""
	}
	switch name {
	case FieldFirstName:
		return m.FirstName
	case FieldLastName:
		return m.LastName
	case FieldFullName:
		return m.FullName
	case FieldEmail:
		return m.Email
	case FieldPhone:
		return m.Phone
	case FieldCity:
		return m.City
	case FieldState:
		return m.State
	case FieldZipCode:
		return m.ZipCode
	case FieldCountry:
		return m.Country
	case FieldLinkedIn:
		return m.LinkedIn
	case FieldGitHub:
		return m.GitHub
	case FieldWebsite:
		return m.Website
	case FieldSummary:
		return m.Summary
	case FieldCurrentTitle:
		return m.CurrentTitle
	case FieldCurrentCompany:
		return m.CurrentCompany
	case FieldYearsExperience:
		if m.YearsExperience == 0 {
			return ""
		}
		return strconv.Itoa(m.YearsExperience)
	case FieldSchool:
		return m.School
	case FieldDegree:
		return m.Degree
	case FieldStudy:
		return m.Field
	case FieldGraduationYear:
		return m.GraduationYear
	case FieldGPA:
		return m.GPA
	}
	return ""
}
