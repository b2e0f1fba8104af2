// Package fetch - platform.go provides platform detection and platform-specific selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a supported hiring site.
type Platform string

const (
	PlatformLinkedIn        Platform = "linkedin"
	PlatformIndeed          Platform = "indeed"
	PlatformGreenhouse      Platform = "greenhouse"
	PlatformLever           Platform = "lever"
	PlatformWorkday         Platform = "workday"
	PlatformAshby           Platform = "ashby"
	PlatformSmartRecruiters Platform = "smartrecruiters"
	PlatformWorkable        Platform = "workable"
	// PlatformUnknown is an unrecognized site
	PlatformUnknown Platform = "unknown"
)

// platformHosts is checked in order; the first host substring found wins.
var platformHosts = []struct {
	host     string
	platform Platform
}{
	{"linkedin.com", PlatformLinkedIn},
	{"indeed.com", PlatformIndeed},
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"ashbyhq.com", PlatformAshby},
	{"smartrecruiters.com", PlatformSmartRecruiters},
	{"workable.com", PlatformWorkable},
}

// DetectPlatform identifies the hiring site from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return PlatformUnknown
	}
	for _, ph := range platformHosts {
		if strings.Contains(host, ph.host) {
			return ph.platform
		}
	}
	return PlatformUnknown
}

// Supported reports whether the platform has form selectors.
func (p Platform) Supported() bool {
	_, ok := formSelectors[p]
	return ok
}

var formSelectors = map[Platform][]string{
	PlatformLinkedIn:        {".jobs-easy-apply-content", ".jobs-apply-form", ".jobs-easy-apply-modal"},
	PlatformIndeed:          {"#ia-container", ".indeed-apply-widget", ".ia-BasePage"},
	PlatformGreenhouse:      {"#application-form", ".application-form", "#application_form", `form[action*="greenhouse"]`},
	PlatformLever:           {".application-form", ".lever-application", `form[action*="lever"]`},
	PlatformWorkday:         {".application-content", `[data-automation-id="applicationForm"]`, ".wd-ApplicationForm"},
	PlatformAshby:           {".application-form", `form[data-testid="application-form"]`},
	PlatformSmartRecruiters: {".application-form", ".job-apply-form"},
	PlatformWorkable:        {".application-form", "form.apply-form"},
}

var jobDescriptionSelectors = map[Platform][]string{
	PlatformLinkedIn:        {".jobs-description__content", ".job-details-module", ".jobs-description", ".jobs-box__html-content"},
	PlatformIndeed:          {"#jobDescriptionText", ".jobsearch-jobDescriptionText"},
	PlatformGreenhouse:      {"#content .body", ".job-description", ".job__description"},
	PlatformLever:           {".section-wrapper .content", ".posting-page .content", ".posting-description"},
	PlatformWorkday:         {".job-description", `[data-automation-id="jobPostingDescription"]`},
	PlatformAshby:           {".ashby-job-posting-description", ".job-description"},
	PlatformSmartRecruiters: {".job-description", ".jobad-description"},
	PlatformWorkable:        {".job-description", ".job-details"},
}

// FormSelectors returns the application-form container selectors for a platform.
func FormSelectors(platform Platform) []string {
	return formSelectors[platform]
}

// FormSelector joins FormSelectors into one selector group; empty when unsupported.
func FormSelector(platform Platform) string {
	return strings.Join(formSelectors[platform], ", ")
}

// JobDescriptionSelectors returns the job-description selectors for a
// platform, falling back to generic job-posting selectors.
func JobDescriptionSelectors(platform Platform) []string {
	if sels, ok := jobDescriptionSelectors[platform]; ok {
		return sels
	}
	return JobPostingSelectors()
}

// JobPostingSelectors returns selectors for job pages of unknown sites.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
	}
}

// NoiseSelectors returns elements stripped from a job description before
// conversion: embedded forms, EEO blocks and share widgets.
func NoiseSelectors(platform Platform) []string {
	common := []string{
		"script",
		"style",
		"noscript",
		"form",
		"button",
		".apply-button-container",
		".voluntary-disclosure",
		".eeo-statement",
		".eeo-section",
		".legal-disclosure",
		".self-identification",
		".social-share",
		".share-buttons",
		".cookie-banner",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common, ".voluntary-self-id", "#usa_self_id_section", ".post-apply")
	case PlatformLever:
		return append(common, ".apply-section", ".posting-apply")
	case PlatformWorkday:
		return append(common, "[data-automation-id='applyButton']", ".WDAF")
	default:
		return common
	}
}
