package model

import "time"

// GitHubProfile is the public profile GitHub reports for a login.
type GitHubProfile struct {
	Login       string
	Name        string
	HTMLURL     string
	PublicRepos int
	CreatedAt   time.Time
}
