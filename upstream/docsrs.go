package upstream

import (
	"context"
	"html"
	"regexp"
	"strings"
)

// maxSnippetLen caps the extracted documentation text
const maxSnippetLen = 20 * 1024

var (
	scriptRe = regexp.MustCompile(`(?is)<script.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style.*?</style>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// GetCrateDocumentation fetches one docs.rs page and reduces it to a
// readable text snippet. An empty version means the latest release;
// an empty path means the crate's root module. docs.rs itself resolves
// the "latest" alias, so no registry round trip is needed here.
func (c *Client) GetCrateDocumentation(ctx context.Context, name, version, path string) (*DocumentationSnippet, error) {
	if version == "" {
		version = "latest"
	}

	// docs.rs exposes crate "foo-bar" under module "foo_bar"
	module := strings.ReplaceAll(name, "-", "_")
	u := c.docsBaseURL + "/" + name + "/" + version + "/" + module + "/"
	if path != "" {
		u += strings.Trim(path, "/") + "/"
	}

	body, finalURL, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	content := extractText(string(body))
	if content == "" {
		return nil, malformedError(nil, "documentation page at "+finalURL+" contained no readable text")
	}

	// When docs.rs resolved the "latest" alias, report the concrete
	// version it redirected to.
	if version == "latest" {
		if v := versionFromDocsURL(finalURL, name); v != "" {
			version = v
		}
	}

	return &DocumentationSnippet{
		Crate:     name,
		Version:   version,
		Path:      path,
		Content:   content,
		SourceURL: finalURL,
	}, nil
}

// extractText strips a docs.rs HTML page down to its visible text
func extractText(page string) string {
	page = scriptRe.ReplaceAllString(page, " ")
	page = styleRe.ReplaceAllString(page, " ")

	// Prefer the main content section when the page structure is recognized
	if i := strings.Index(page, `id="main-content"`); i >= 0 {
		if j := strings.LastIndex(page[:i], "<"); j >= 0 {
			i = j
		}
		page = page[i:]
	}

	page = tagRe.ReplaceAllString(page, "\n")
	page = html.UnescapeString(page)

	lines := strings.Split(page, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		kept = append(kept, line)
	}
	text := strings.TrimSpace(blankRe.ReplaceAllString(strings.Join(kept, "\n"), "\n\n"))

	if len(text) > maxSnippetLen {
		text = text[:maxSnippetLen]
	}
	return text
}

// versionFromDocsURL pulls the concrete version out of a docs.rs URL
// of the form https://docs.rs/<crate>/<version>/...
func versionFromDocsURL(u, name string) string {
	parts := strings.Split(u, "/")
	for i, part := range parts {
		if part == name && i+1 < len(parts) {
			v := parts[i+1]
			if v != "" && v != "latest" {
				return v
			}
			return ""
		}
	}
	return ""
}
