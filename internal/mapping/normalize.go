// Package mapping converts raw resume JSON from the resume service into the
// flat set of semantic field values used to fill application forms.
//
// The service mixes key conventions (snake_case and camelCase) and stores some
// fields either as lists or as free text, so values are read with gjson rather
// than decoded into fixed structs. Nothing in this package returns an error:
// every absent or malformed value degrades to an empty string or zero.
package mapping

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jonathan/resume-autofill/internal/types"
)

// DefaultCountry is used when a location carries no country segment.
const DefaultCountry = "United States"

// Normalize maps raw resume JSON to fill-ready fields as of now.
func Normalize(raw []byte) *types.MappedFields {
	return NormalizeAt(raw, time.Now())
}

// NormalizeAt maps raw resume JSON to fill-ready fields, computing years of
// experience relative to now.
func NormalizeAt(raw []byte, now time.Time) *types.MappedFields {
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		doc = gjson.Result{}
	}

	name := strings.TrimSpace(firstString(doc, "name", "fullName", "full_name"))
	first, last := SplitName(name)
	loc := ParseLocation(doc.Get("location").String())
	title, company := CurrentPosition(doc.Get("experiences"))
	edu := ParseEducation(doc.Get("education"))
	links := ExtractLinks(doc)

	return &types.MappedFields{
		FirstName:       TitleCase(first),
		LastName:        TitleCase(last),
		FullName:        TitleCase(name),
		Email:           strings.TrimSpace(doc.Get("email").String()),
		Phone:           FormatPhone(doc.Get("phone").String()),
		City:            loc.City,
		State:           loc.State,
		ZipCode:         firstString(doc, "zipCode", "zip_code", "zip"),
		Country:         loc.Country,
		LinkedIn:        links.LinkedIn,
		GitHub:          links.GitHub,
		Website:         links.Website,
		Summary:         doc.Get("summary").String(),
		CurrentTitle:    title,
		CurrentCompany:  company,
		YearsExperience: YearsOfExperience(doc.Get("experiences"), now),
		School:          edu.School,
		Degree:          edu.Degree,
		Field:           edu.Field,
		GraduationYear:  edu.GraduationYear,
		GPA:             edu.GPA,
		Skills:          FormatSkills(doc.Get("skills")),
	}
}

// FormatSkills joins a skills list with ", ", passes a string through, and
// returns empty for anything else.
func FormatSkills(skills gjson.Result) string {
	switch {
	case skills.IsArray():
		parts := make([]string, 0, len(skills.Array()))
		for _, s := range skills.Array() {
			if v := s.String(); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	case skills.Type == gjson.String:
		return skills.Str
	default:
		return ""
	}
}

// firstString returns the first non-empty string value among keys.
func firstString(doc gjson.Result, keys ...string) string {
	for _, key := range keys {
		v := doc.Get(key)
		if !v.Exists() || v.IsObject() || v.IsArray() {
			continue
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}
