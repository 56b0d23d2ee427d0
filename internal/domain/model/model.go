// Package model contains domain models passed between layers.
package model

import "time"

// ExperienceLevel classifies a contributor's seniority.
type ExperienceLevel string

// Recognized experience levels.
const (
	Beginner     ExperienceLevel = "Beginner"
	Intermediate ExperienceLevel = "Intermediate"
	Advanced     ExperienceLevel = "Advanced"
)

// ExperienceLevels lists the recognized levels in ascending order.
var ExperienceLevels = []ExperienceLevel{Beginner, Intermediate, Advanced}

// Valid reports whether e is one of the recognized levels.
func (e ExperienceLevel) Valid() bool {
	switch e {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Contributor is an open-source contributor profile.
// Bio, Location and AvatarURL are optional and may be empty.
type Contributor struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Handle     string          `json:"handle" yaml:"handle"`
	Bio        string          `json:"bio,omitempty" yaml:"bio,omitempty"`
	Location   string          `json:"location,omitempty" yaml:"location,omitempty"`
	AvatarURL  string          `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	Skills     []string        `json:"skills" yaml:"skills"`
	Experience ExperienceLevel `json:"experience" yaml:"experience"`
	Interests  []string        `json:"interests" yaml:"interests"`

	Score        int `json:"score" yaml:"score"`
	Commits      int `json:"commits" yaml:"commits"`
	PullRequests int `json:"pull_requests" yaml:"pull_requests"`
	Followers    int `json:"followers" yaml:"followers"`
	Stars        int `json:"stars" yaml:"stars"`

	JoinedAt time.Time `json:"joined_at" yaml:"joined_at"`
}

// Tag marks a project as part of a program (e.g. GSoC, Hacktoberfest).
type Tag struct {
	Kind      string `json:"kind" yaml:"kind"`
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Verified  bool   `json:"verified" yaml:"verified"`
}

// Project is a repository listed for discovery.
type Project struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Owner       string         `json:"owner" yaml:"owner"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	RepoURL     string         `json:"repo_url,omitempty" yaml:"repo_url,omitempty"`
	Topics      []string       `json:"topics" yaml:"topics"`
	Tags        []Tag          `json:"tags" yaml:"tags"`
	Languages   map[string]int `json:"languages" yaml:"languages"`

	Stars     int `json:"stars" yaml:"stars"`
	Forks     int `json:"forks" yaml:"forks"`
	Upvotes   int `json:"upvotes" yaml:"upvotes"`
	Downvotes int `json:"downvotes" yaml:"downvotes"`

	Approved    bool   `json:"approved" yaml:"approved"`
	Visible     bool   `json:"visible" yaml:"visible"`
	SuggestedBy string `json:"suggested_by,omitempty" yaml:"suggested_by,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NetVotes returns upvotes minus downvotes.
func (p Project) NetVotes() int { return p.Upvotes - p.Downvotes }

// Public reports whether the project appears in public listings.
func (p Project) Public() bool { return p.Approved && p.Visible }

// HasTag reports whether the project carries a tag of the given kind.
func (p Project) HasTag(kind string) bool {
	for _, t := range p.Tags {
		if t.Kind == kind {
			return true
		}
	}
	return false
}

// Dataset is a full set of records, as stored in dataset files.
type Dataset struct {
	Contributors []Contributor `json:"contributors" yaml:"contributors"`
	Projects     []Project     `json:"projects" yaml:"projects"`
}
