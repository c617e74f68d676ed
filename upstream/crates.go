package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SearchCrates queries the crates.io search endpoint. Results keep the
// upstream relevance ranking; limit is passed through as per_page and
// must already be clamped by the caller.
func (c *Client) SearchCrates(ctx context.Context, query string, limit int) ([]CrateSummary, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", strconv.Itoa(limit))

	body, _, err := c.fetch(ctx, c.cratesBaseURL+"/crates?"+q.Encode())
	if err != nil {
		return nil, err
	}

	return decodeSearch(body)
}

// GetCrateInfo fetches the detail record for a crate. The reported
// version is the newest non-yanked release.
func (c *Client) GetCrateInfo(ctx context.Context, name string) (*CrateInfo, error) {
	raw, err := c.getCrate(ctx, name)
	if err != nil {
		return nil, err
	}

	return normalizeCrateInfo(name, raw)
}

// GetCrateVersions fetches the version history of a crate in registry
// order (newest first). A limit of 0 returns every version.
func (c *Client) GetCrateVersions(ctx context.Context, name string, limit int) ([]CrateVersion, error) {
	raw, err := c.getCrate(ctx, name)
	if err != nil {
		return nil, err
	}

	versions, err := normalizeVersions(raw.Versions)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(versions) {
		versions = versions[:limit]
	}
	return versions, nil
}

// LatestVersion resolves the newest non-yanked version of a crate,
// falling back to the newest version when every release is yanked.
func (c *Client) LatestVersion(ctx context.Context, name string) (string, error) {
	raw, err := c.getCrate(ctx, name)
	if err != nil {
		return "", err
	}
	return latestVersion(name, raw.Versions)
}

// GetCrateDependencies fetches the dependency set of one crate version.
// A crate with no dependencies yields an empty, non-nil slice.
func (c *Client) GetCrateDependencies(ctx context.Context, name, version string) ([]Dependency, error) {
	u := fmt.Sprintf("%s/crates/%s/%s/dependencies", c.cratesBaseURL, url.PathEscape(name), url.PathEscape(version))

	body, _, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	return decodeDependencies(body)
}

func (c *Client) getCrate(ctx context.Context, name string) (*crateResponse, error) {
	body, _, err := c.fetch(ctx, c.cratesBaseURL+"/crates/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}

	var raw crateResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformedError(err, fmt.Sprintf("crate response for %q is not valid JSON", name))
	}
	if raw.Crate == nil || raw.Crate.Name == nil {
		return nil, malformedError(nil, fmt.Sprintf("crate response for %q is missing the crate record", name))
	}
	return &raw, nil
}

func decodeSearch(body []byte) ([]CrateSummary, error) {
	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformedError(err, "search response is not valid JSON")
	}

	results := make([]CrateSummary, 0, len(raw.Crates))
	for i, cr := range raw.Crates {
		if cr.Name == nil || cr.MaxVersion == nil {
			return nil, malformedError(nil, fmt.Sprintf("search result %d is missing name or max_version", i))
		}
		results = append(results, CrateSummary{
			Name:            *cr.Name,
			MaxVersion:      *cr.MaxVersion,
			Description:     cr.Description,
			Downloads:       cr.Downloads,
			RecentDownloads: cr.RecentDownloads,
			Homepage:        cr.Homepage,
			Repository:      cr.Repository,
			Documentation:   cr.Documentation,
			ExactMatch:      cr.ExactMatch,
		})
	}
	return results, nil
}

func normalizeCrateInfo(name string, raw *crateResponse) (*CrateInfo, error) {
	latest, err := latestVersion(name, raw.Versions)
	if err != nil {
		return nil, err
	}

	var license string
	for _, v := range raw.Versions {
		if v.Num != nil && *v.Num == latest {
			license = v.License
			break
		}
	}

	keywords := make([]string, 0, len(raw.Keywords))
	for _, k := range raw.Keywords {
		keywords = append(keywords, k.Keyword)
	}
	categories := make([]string, 0, len(raw.Categories))
	for _, cat := range raw.Categories {
		categories = append(categories, cat.Category)
	}

	return &CrateInfo{
		Name:          *raw.Crate.Name,
		Version:       latest,
		Description:   raw.Crate.Description,
		License:       license,
		Documentation: raw.Crate.Documentation,
		Homepage:      raw.Crate.Homepage,
		Repository:    raw.Crate.Repository,
		Keywords:      keywords,
		Categories:    categories,
		Downloads:     raw.Crate.Downloads,
		CreatedAt:     raw.Crate.CreatedAt,
		UpdatedAt:     raw.Crate.UpdatedAt,
	}, nil
}

func normalizeVersions(raw []versionData) ([]CrateVersion, error) {
	versions := make([]CrateVersion, 0, len(raw))
	for i, v := range raw {
		if v.Num == nil || v.Yanked == nil {
			return nil, malformedError(nil, fmt.Sprintf("version entry %d is missing num or yanked", i))
		}
		versions = append(versions, CrateVersion{
			Num:       *v.Num,
			CreatedAt: v.CreatedAt,
			Downloads: v.Downloads,
			Yanked:    *v.Yanked,
			License:   v.License,
		})
	}
	return versions, nil
}

// latestVersion picks the first non-yanked entry of the registry-ordered
// version list, or the first entry when everything is yanked.
func latestVersion(name string, raw []versionData) (string, error) {
	if len(raw) == 0 {
		return "", malformedError(nil, fmt.Sprintf("crate %q has no versions", name))
	}
	for _, v := range raw {
		if v.Num == nil || v.Yanked == nil {
			return "", malformedError(nil, fmt.Sprintf("version entry for %q is missing num or yanked", name))
		}
		if !*v.Yanked {
			return *v.Num, nil
		}
	}
	return *raw[0].Num, nil
}

func decodeDependencies(body []byte) ([]Dependency, error) {
	var raw dependenciesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformedError(err, "dependencies response is not valid JSON")
	}

	deps := make([]Dependency, 0, len(raw.Dependencies))
	for i, d := range raw.Dependencies {
		if d.CrateID == nil || d.Req == nil {
			return nil, malformedError(nil, fmt.Sprintf("dependency %d is missing crate_id or req", i))
		}
		kind := d.Kind
		if kind == "" {
			kind = "normal"
		}
		deps = append(deps, Dependency{
			Name:            *d.CrateID,
			Req:             *d.Req,
			Kind:            kind,
			Optional:        d.Optional,
			DefaultFeatures: d.DefaultFeatures,
			Features:        d.Features,
			Target:          d.Target,
		})
	}
	return deps, nil
}
