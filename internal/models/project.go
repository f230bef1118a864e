package models

import (
	"bytes"
	"encoding/json"
)

// Project statuses.
const (
	ProjectActive    = "ACTIVE"
	ProjectInactive  = "INACTIVE"
	ProjectCompleted = "COMPLETED"
	ProjectOnHold    = "ON_HOLD"
)

type Project struct {
	ID           int           `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	ImageURL     string        `json:"image_url,omitempty"`
	Stats        *ProjectStats `json:"stats,omitempty"`
	Technologies []Technology  `json:"technologies"`
	Objectives   []Objective   `json:"objectives,omitempty"`
	SkillsNeeded StringList    `json:"skills_needed"`
	Progress     *int          `json:"progress,omitempty"`
	Status       string        `json:"status,omitempty"`
	// MemberIDs are accepted members; LikeIDs are users who showed interest
	// and are still waiting for a decision.
	MemberIDs IDList `json:"member_ids"`
	LikeIDs   IDList `json:"like_ids"`
	CreatedAt Date   `json:"created_at"`
	UpdatedAt Date   `json:"updated_at"`
}

// Interest decisions.
const (
	InterestAccept = "ACCEPT"
	InterestReject = "REJECT"
)

type ProjectStats struct {
	TeamCurrent *int   `json:"team_current,omitempty"`
	TeamMax     *int   `json:"team_max,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Language    string `json:"language,omitempty"`
	Type        string `json:"type,omitempty"`
}

type Technology struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// UnmarshalJSON accepts either {"name": ...} or a bare string.
func (t *Technology) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*t = Technology{Name: name}
		return nil
	}
	type plain Technology
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = Technology(p)
	return nil
}

type Objective struct {
	Text   string `json:"text"`
	Status string `json:"status,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

// ProjectPatch carries caller-supplied project fields. It is used both for
// creation and for updates; on update nil fields keep their stored value.
type ProjectPatch struct {
	Title        *string       `json:"title"`
	Description  *string       `json:"description"`
	ImageURL     *string       `json:"image_url"`
	Stats        *ProjectStats `json:"stats"`
	Technologies *[]Technology `json:"technologies"`
	Objectives   *[]Objective  `json:"objectives"`
	SkillsNeeded *StringList   `json:"skills_needed"`
	Progress     *int          `json:"progress"`
	Status       *string       `json:"status"`
}

// Apply overwrites the fields of p that are set. id and timestamps are
// never touched.
func (p ProjectPatch) Apply(dst *Project) {
	setString(&dst.Title, p.Title)
	setString(&dst.Description, p.Description)
	setString(&dst.ImageURL, p.ImageURL)
	if p.Stats != nil {
		stats := *p.Stats
		dst.Stats = &stats
	}
	if p.Technologies != nil {
		dst.Technologies = append([]Technology{}, (*p.Technologies)...)
	}
	if p.Objectives != nil {
		dst.Objectives = append([]Objective{}, (*p.Objectives)...)
	}
	setList(&dst.SkillsNeeded, p.SkillsNeeded)
	if p.Progress != nil {
		progress := *p.Progress
		dst.Progress = &progress
	}
	setString(&dst.Status, p.Status)
}
