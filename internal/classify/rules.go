// Package classify maps page inputs to semantic resume fields using an
// ordered, static rule table.
package classify

import (
	"slices"

	"github.com/jonathan/resume-autofill/internal/types"
)

// Pattern describes how to recognise one semantic field. All strings are
// lower case; matching is case-insensitive substring containment except for
// Types, which must equal the input type exactly.
type Pattern struct {
	Field  types.FieldName
	Labels []string
	Attrs  []string
	Types  []string
}

// RuleTable is an ordered list of patterns. Earlier patterns win ties.
type RuleTable []Pattern

// Rules broad enough to swallow other fields sit after the specific ones:
// country precedes state ("country/region"), github precedes website
// ("github url"), the title rule precedes company ("organization-title"),
// and fullName ("name") comes last.
var defaultRules = RuleTable{
	{
		Field:  types.FieldFirstName,
		Labels: []string{"first name", "firstname", "given name", "forename"},
		Attrs:  []string{"firstname", "first_name", "fname", "given-name", "givenname"},
	},
	{
		Field:  types.FieldLastName,
		Labels: []string{"last name", "lastname", "surname", "family name"},
		Attrs:  []string{"lastname", "last_name", "lname", "family-name", "familyname"},
	},
	{
		Field:  types.FieldEmail,
		Labels: []string{"email", "email address", "e-mail"},
		Attrs:  []string{"email", "emailaddress", "email_address"},
		Types:  []string{"email"},
	},
	{
		Field:  types.FieldPhone,
		Labels: []string{"phone", "phone number", "telephone", "mobile", "cell"},
		Attrs:  []string{"phone", "phonenumber", "phone_number", "telephone", "mobile", "tel"},
		Types:  []string{"tel"},
	},
	{
		Field:  types.FieldLinkedIn,
		Labels: []string{"linkedin", "linkedin url", "linkedin profile"},
		Attrs:  []string{"linkedin", "linkedinurl", "linkedin_url"},
	},
	{
		Field:  types.FieldGitHub,
		Labels: []string{"github", "github url", "github profile"},
		Attrs:  []string{"github", "githuburl", "github_url"},
	},
	{
		Field:  types.FieldWebsite,
		Labels: []string{"website", "portfolio", "personal website", "url"},
		Attrs:  []string{"website", "portfolio", "url", "personalwebsite"},
		Types:  []string{"url"},
	},
	{
		Field:  types.FieldCity,
		Labels: []string{"city", "town"},
		Attrs:  []string{"city", "town", "locality", "address-level2"},
	},
	{
		Field:  types.FieldZipCode,
		Labels: []string{"zip", "zip code", "postal code", "postcode"},
		Attrs:  []string{"zip", "zipcode", "postalcode", "postcode", "postal"},
	},
	{
		Field:  types.FieldCountry,
		Labels: []string{"country"},
		Attrs:  []string{"country"},
	},
	{
		Field:  types.FieldState,
		Labels: []string{"state", "province", "region"},
		Attrs:  []string{"state", "province", "region", "administrativearea", "address-level1"},
	},
	{
		Field:  types.FieldCurrentTitle,
		Labels: []string{"current title", "job title", "current position", "title"},
		Attrs:  []string{"jobtitle", "job_title", "currenttitle", "current_title", "title"},
	},
	{
		Field:  types.FieldCurrentCompany,
		Labels: []string{"current company", "current employer", "company", "employer"},
		Attrs:  []string{"company", "employer", "organization"},
	},
	{
		Field:  types.FieldSchool,
		Labels: []string{"school", "university", "college", "institution"},
		Attrs:  []string{"school", "university", "college", "institution"},
	},
	{
		Field:  types.FieldDegree,
		Labels: []string{"degree"},
		Attrs:  []string{"degree"},
	},
	{
		Field:  types.FieldStudy,
		Labels: []string{"field of study", "major", "discipline"},
		Attrs:  []string{"fieldofstudy", "field_of_study", "major", "discipline"},
	},
	{
		Field:  types.FieldGraduationYear,
		Labels: []string{"graduation year", "graduation date", "year of graduation"},
		Attrs:  []string{"graduationyear", "graduation_year", "gradyear", "grad_year"},
	},
	{
		Field:  types.FieldGPA,
		Labels: []string{"gpa", "grade point"},
		Attrs:  []string{"gpa"},
	},
	{
		Field:  types.FieldYearsExperience,
		Labels: []string{"years of experience", "years experience"},
		Attrs:  []string{"yearsexperience", "years_experience", "yearsofexperience", "experience_years"},
	},
	{
		Field:  types.FieldSummary,
		Labels: []string{"summary", "about me", "about yourself", "bio"},
		Attrs:  []string{"summary", "bio", "about"},
	},
	{
		Field:  types.FieldFullName,
		Labels: []string{"full name", "name", "your name", "legal name"},
		Attrs:  []string{"name", "fullname", "full_name"},
	},
}

// DefaultRules returns a copy of the built-in rule table.
func DefaultRules() RuleTable {
	return slices.Clone(defaultRules)
}

// Fields lists the fields of the table in declaration order.
func (rt RuleTable) Fields() []types.FieldName {
	out := make([]types.FieldName, 0, len(rt))
	for _, p := range rt {
		out = append(out, p.Field)
	}
	return out
}
