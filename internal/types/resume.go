// Package types provides the data shapes shared across the autofill system:
// resume profiles, mapped form fields, sessions, preferences and errors.
package types

import "encoding/json"

// ResumeProfile is the resume document returned by the remote service.
// Every field is optional. The normalizer reads the raw JSON rather than this
// struct because the service mixes key conventions (job_title vs jobTitle).
type ResumeProfile struct {
	Name        string          `json:"name,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Location    string          `json:"location,omitempty"`
	Skills      json.RawMessage `json:"skills,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Experiences []Experience    `json:"experiences,omitempty"`
	Education   json.RawMessage `json:"education,omitempty"`
}

// Experience is one work history entry.
type Experience struct {
	Title            string `json:"jobTitle,omitempty"`
	Company          string `json:"company,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
	CurrentlyWorking bool   `json:"currentlyWorking,omitempty"`
}

// Education is one structured education entry.
type Education struct {
	School         string `json:"school,omitempty"`
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	GraduationYear string `json:"graduationYear,omitempty"`
	GPA            string `json:"gpa,omitempty"`
}

// ResumeFile is one entry of the resume-file history.
type ResumeFile struct {
	S3Path     string `json:"s3_path,omitempty"`
	ResumeName string `json:"resume_name,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// ResumePDF is a downloaded resume document ready to attach to upload inputs.
type ResumePDF struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// PDFMimeType is the MIME type attached files are given.
const PDFMimeType = "application/pdf"
