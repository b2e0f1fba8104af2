package mapping

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Links are profile URLs found in a resume.
type Links struct {
	LinkedIn string
	GitHub   string
	Website  string
}

var (
	linkedInPattern = regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`)
	gitHubPattern   = regexp.MustCompile(`(?i)github\.com/[\w-]+`)
	urlPattern      = regexp.MustCompile(`(?i)https?://[^\s"'<>\\]+`)
)

// socialDomains are never reported as a personal website.
var socialDomains = []string{"linkedin", "github", "twitter", "facebook", "x.com", "instagram"}

// ExtractLinks prefers explicit link keys and otherwise searches the summary
// and the serialized experience list. The first match wins.
func ExtractLinks(doc gjson.Result) Links {
	sources := []string{doc.Get("summary").String()}
	if exp := doc.Get("experiences"); exp.Exists() {
		sources = append(sources, exp.Raw)
	}

	links := Links{
		LinkedIn: firstString(doc, "linkedin", "linkedin_url", "linkedinUrl"),
		GitHub:   firstString(doc, "github", "github_url", "githubUrl"),
		Website:  firstString(doc, "website", "portfolio", "personal_website"),
	}
	if links.LinkedIn == "" {
		links.LinkedIn = findProfile(linkedInPattern, sources)
	}
	if links.GitHub == "" {
		links.GitHub = findProfile(gitHubPattern, sources)
	}
	if links.Website == "" {
		links.Website = findWebsite(sources)
	}
	return links
}

func findProfile(pattern *regexp.Regexp, sources []string) string {
	for _, src := range sources {
		if m := pattern.FindString(src); m != "" {
			return "https://" + m
		}
	}
	return ""
}

func findWebsite(sources []string) string {
	for _, src := range sources {
		for _, candidate := range urlPattern.FindAllString(src, -1) {
			candidate = strings.TrimRight(candidate, ".,;:)]}")
			if !isSocial(candidate) {
				return candidate
			}
		}
	}
	return ""
}

func isSocial(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, social := range socialDomains {
		if strings.HasPrefix(host, social) || strings.HasSuffix(host, "."+social) || strings.Contains(host, "."+social+".") {
			return true
		}
	}
	return false
}
