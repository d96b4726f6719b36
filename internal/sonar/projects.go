package sonar

import (
	"context"
	"fmt"
	"iter"
	"net/url"
)

// ProjectPageSize is the page size the project search applies on the server side
const ProjectPageSize = 100

// ProjectsPage fetches page p of the project search
func (c *Client) ProjectsPage(ctx context.Context, p int) (Page[ProjectKey], error) {
	var resp projectsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/api/projects/search?p=%d", p), &resp); err != nil {
		return Page[ProjectKey]{}, err
	}

	keys := make([]ProjectKey, 0, len(resp.Components))
	for _, comp := range resp.Components {
		keys = append(keys, ProjectKey(comp.Key))
	}
	return Page[ProjectKey]{Items: keys, Total: resp.Paging.Total}, nil
}

// ProjectPages walks the project search while paging.total > p*ProjectPageSize
func (c *Client) ProjectPages(ctx context.Context) iter.Seq2[Page[ProjectKey], error] {
	return Pages(ctx, c.ProjectsPage, TotalStrategy{PageSize: ProjectPageSize})
}

// ListProjects returns every project key on the server
func (c *Client) ListProjects(ctx context.Context) ([]ProjectKey, error) {
	return Collect(ctx, c.ProjectsPage, TotalStrategy{PageSize: ProjectPageSize})
}

// ListBranches returns the branch names of a project. The endpoint is not
// paged, the whole list comes in a single response.
func (c *Client) ListBranches(ctx context.Context, project ProjectKey) ([]string, error) {
	fetch := func(ctx context.Context, _ int) (Page[string], error) {
		var resp branchesResponse
		path := "/api/project_branches/list?project=" + url.QueryEscape(string(project))
		if err := c.getJSON(ctx, path, &resp); err != nil {
			return Page[string]{}, err
		}
		names := make([]string, 0, len(resp.Branches))
		for _, b := range resp.Branches {
			names = append(names, b.Name)
		}
		return Page[string]{Items: names, Total: len(names)}, nil
	}
	return Collect(ctx, fetch, SinglePage{})
}

// ExportFindings returns every finding of a project branch. The export is
// not paged and is held in memory in full; very large branches cost
// proportionally.
func (c *Client) ExportFindings(ctx context.Context, project ProjectKey, branch string) ([]Finding, error) {
	fetch := func(ctx context.Context, _ int) (Page[Finding], error) {
		var resp findingsResponse
		path := fmt.Sprintf("/api/projects/export_findings?project=%s&branch=%s",
			url.QueryEscape(string(project)), url.QueryEscape(branch))
		if err := c.getJSON(ctx, path, &resp); err != nil {
			return Page[Finding]{}, err
		}
		return Page[Finding]{Items: resp.Findings, Total: len(resp.Findings)}, nil
	}
	return Collect(ctx, fetch, SinglePage{})
}
