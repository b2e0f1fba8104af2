package mapping

import (
	"regexp"

	"github.com/tidwall/gjson"
)

// Education is the most recent education entry.
type Education struct {
	School         string
	Degree         string
	Field          string
	GraduationYear string
	GPA            string
}

var (
	// Leftmost match wins when several degree keywords appear.
	degreePattern = regexp.MustCompile(`(?i)(?:Bachelor|Master|PhD|B\.?S\.?|M\.?S\.?|B\.?A\.?|M\.?A\.?|MBA|Associate)`)
	yearPattern   = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// ParseEducation reads education either as a structured list (a JSON array,
// or a string holding one) or as free text. Structured input takes the first
// entry; free text falls back to degree and year extraction.
func ParseEducation(education gjson.Result) Education {
	switch {
	case education.IsArray():
		return fromEntries(education)
	case education.IsObject():
		return fromEntry(education)
	case education.Type == gjson.String:
		text := education.Str
		if gjson.Valid(text) {
			parsed := gjson.Parse(text)
			switch {
			case parsed.IsArray():
				return fromEntries(parsed)
			case parsed.IsObject():
				return fromEntry(parsed)
			}
			return Education{}
		}
		return fromText(text)
	}
	return Education{}
}

func fromEntries(list gjson.Result) Education {
	entries := list.Array()
	if len(entries) == 0 {
		return Education{}
	}
	return fromEntry(entries[0])
}

func fromEntry(e gjson.Result) Education {
	return Education{
		School:         firstString(e, "school", "institution"),
		Degree:         firstString(e, "degree"),
		Field:          firstString(e, "field", "major"),
		GraduationYear: firstString(e, "graduationYear", "graduation_year", "year"),
		GPA:            firstString(e, "gpa"),
	}
}

func fromText(text string) Education {
	return Education{
		Degree:         degreePattern.FindString(text),
		GraduationYear: yearPattern.FindString(text),
	}
}
