// Package docs groups API documentation endpoints into the fixed set of
// categories shown in the docs tree.
package docs

// Endpoint describes one documented API endpoint
type Endpoint struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Method      string `json:"method,omitempty"`
	Path        string `json:"path,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Doc is a single documentation record
type Doc struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Category    string            `json:"category,omitempty"`
	Method      string            `json:"method,omitempty"`
	Path        string            `json:"path,omitempty"`
	Description string            `json:"description,omitempty"`
	Content     string            `json:"content,omitempty"`
	Parameters  []DocParam        `json:"parameters,omitempty"`
	Examples    map[string]string `json:"examples,omitempty"`
}

// DocParam is a documented parameter
type DocParam struct {
	Name        string `json:"name"`
	In          string `json:"in,omitempty"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// The predefined categories, in display order.
const (
	CategoryRepositories  = "repositories"
	CategoryIssues        = "issues"
	CategoryPullRequests  = "pull_requests"
	CategoryUsers         = "users"
	CategoryOrganizations = "organizations"
	CategoryActions       = "actions"
)

var categories = []string{
	CategoryRepositories,
	CategoryIssues,
	CategoryPullRequests,
	CategoryUsers,
	CategoryOrganizations,
	CategoryActions,
}

// Categories returns the predefined categories in display order
func Categories() []string {
	return append([]string(nil), categories...)
}

// IsKnownCategory reports whether name is one of the predefined categories
func IsKnownCategory(name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

func emptyBuckets() map[string][]Endpoint {
	out := make(map[string][]Endpoint, len(categories))
	for _, c := range categories {
		out[c] = []Endpoint{}
	}
	return out
}

// Organize keeps the predefined categories of structure and drops the rest.
// Every predefined category is present in the result, possibly empty.
func Organize(structure map[string][]Endpoint) map[string][]Endpoint {
	out := emptyBuckets()
	for name, endpoints := range structure {
		if !IsKnownCategory(name) {
			continue
		}
		out[name] = append(out[name], endpoints...)
	}
	return out
}

// OrganizeFlat buckets endpoints by their own Category field. Endpoints with
// an unknown category are dropped; input order is kept within a bucket.
func OrganizeFlat(endpoints []Endpoint) map[string][]Endpoint {
	out := emptyBuckets()
	for _, e := range endpoints {
		if !IsKnownCategory(e.Category) {
			continue
		}
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}
