package sonar

// User is one entry of the users-management listing
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	// Timestamps come as local date-times without an offset; nil when the
	// user never connected.
	SonarQubeLastConnectionDate *string `json:"sonarQubeLastConnectionDate"`
	SonarLintLastConnectionDate *string `json:"sonarLintLastConnectionDate"`
}

// ProjectKey identifies a project on the server
type ProjectKey string

// Finding is one issue of a branch findings export
type Finding struct {
	RuleReference string `json:"ruleReference"`
	Path          string `json:"path"`
	IssueStatus   string `json:"issueStatus"`
	Message       string `json:"message"`
	Author        string `json:"author"`
	Assignee      string `json:"assignee"`
}

type usersResponse struct {
	Page struct {
		Total int `json:"total"`
	} `json:"page"`
	Users []User `json:"users"`
}

type projectsResponse struct {
	Paging struct {
		Total int `json:"total"`
	} `json:"paging"`
	Components []struct {
		Key string `json:"key"`
	} `json:"components"`
}

type branchesResponse struct {
	Branches []struct {
		Name string `json:"name"`
	} `json:"branches"`
}

type findingsResponse struct {
	Findings []Finding `json:"export_findings"`
}
