package upstream

// CrateSummary is one entry of a search result, in upstream relevance order
type CrateSummary struct {
	Name            string `json:"name"`
	MaxVersion      string `json:"max_version"`
	Description     string `json:"description,omitempty"`
	Downloads       uint64 `json:"downloads"`
	RecentDownloads uint64 `json:"recent_downloads,omitempty"`
	Homepage        string `json:"homepage,omitempty"`
	Repository      string `json:"repository,omitempty"`
	Documentation   string `json:"documentation,omitempty"`
	ExactMatch      bool   `json:"exact_match,omitempty"`
}

// CrateInfo is the detail record for a single crate
type CrateInfo struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Description   string   `json:"description,omitempty"`
	License       string   `json:"license,omitempty"`
	Documentation string   `json:"documentation,omitempty"`
	Homepage      string   `json:"homepage,omitempty"`
	Repository    string   `json:"repository,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Downloads     uint64   `json:"downloads"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// CrateVersion is one published version, in registry order (newest first)
type CrateVersion struct {
	Num       string `json:"num"`
	CreatedAt string `json:"created_at"`
	Downloads uint64 `json:"downloads"`
	Yanked    bool   `json:"yanked"`
	License   string `json:"license,omitempty"`
}

// Dependency is one requirement of a specific crate version
type Dependency struct {
	Name            string   `json:"name"`
	Req             string   `json:"req"`
	Kind            string   `json:"kind"`
	Optional        bool     `json:"optional"`
	DefaultFeatures bool     `json:"default_features"`
	Features        []string `json:"features,omitempty"`
	Target          string   `json:"target,omitempty"`
}

// DocumentationSnippet is the readable text extracted from one docs.rs page
type DocumentationSnippet struct {
	Crate     string `json:"crate"`
	Version   string `json:"version"`
	Path      string `json:"path,omitempty"`
	Content   string `json:"content"`
	SourceURL string `json:"source_url"`
}

// Wire shapes for the crates.io API. Required fields are pointers so a
// missing field is distinguishable from a zero value; unknown fields
// are ignored by encoding/json.

type searchResponse struct {
	Crates []searchCrate `json:"crates"`
}

type searchCrate struct {
	Name            *string `json:"name"`
	MaxVersion      *string `json:"max_version"`
	Description     string  `json:"description"`
	Downloads       uint64  `json:"downloads"`
	RecentDownloads uint64  `json:"recent_downloads"`
	Homepage        string  `json:"homepage"`
	Repository      string  `json:"repository"`
	Documentation   string  `json:"documentation"`
	ExactMatch      bool    `json:"exact_match"`
}

type crateResponse struct {
	Crate      *crateData     `json:"crate"`
	Versions   []versionData  `json:"versions"`
	Keywords   []keywordData  `json:"keywords"`
	Categories []categoryData `json:"categories"`
}

type crateData struct {
	Name          *string `json:"name"`
	Description   string  `json:"description"`
	Documentation string  `json:"documentation"`
	Homepage      string  `json:"homepage"`
	Repository    string  `json:"repository"`
	Downloads     uint64  `json:"downloads"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type versionData struct {
	Num       *string `json:"num"`
	CreatedAt string  `json:"created_at"`
	Downloads uint64  `json:"downloads"`
	Yanked    *bool   `json:"yanked"`
	License   string  `json:"license"`
}

type keywordData struct {
	Keyword string `json:"keyword"`
}

type categoryData struct {
	Category string `json:"category"`
}

type dependenciesResponse struct {
	Dependencies []dependencyData `json:"dependencies"`
}

type dependencyData struct {
	CrateID         *string  `json:"crate_id"`
	Req             *string  `json:"req"`
	Kind            string   `json:"kind"`
	Optional        bool     `json:"optional"`
	DefaultFeatures bool     `json:"default_features"`
	Features        []string `json:"features"`
	Target          string   `json:"target"`
}
