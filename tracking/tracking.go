// Package tracking records evaluation runs against a cloud project so that
// results can be browsed centrally.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"
)

var (
	// ErrIncompleteProject is returned when project metadata lacks an identifier.
	ErrIncompleteProject = errors.New("tracking: incomplete project metadata")
	// ErrBucketNotFound is returned when the tracking bucket does not exist.
	ErrBucketNotFound = errors.New("tracking: bucket not found")
)

// Project identifies the workspace evaluation runs are tracked in.
type Project struct {
	SubscriptionID string `json:"subscription_id"`
	ResourceGroup  string `json:"resource_group_name"`
	ProjectName    string `json:"project_name"`
}

// Validate checks that every identifier is set.
func (p Project) Validate() error {
	var missing []string
	if p.SubscriptionID == "" {
		missing = append(missing, "subscription_id")
	}
	if p.ResourceGroup == "" {
		missing = append(missing, "resource_group_name")
	}
	if p.ProjectName == "" {
		missing = append(missing, "project_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrIncompleteProject, missing)
	}
	return nil
}

// Prefix returns the object key prefix of the project.
func (p Project) Prefix() string {
	return path.Join("subscriptions", p.SubscriptionID,
		"resourceGroups", p.ResourceGroup,
		"projects", p.ProjectName)
}

// Run is an evaluation run to be recorded.
type Run struct {
	ID      string
	Name    string
	Created time.Time
	Metrics map[string]float64
	// Report is the serialized evaluation report.
	Report []byte
}

// Tracker records evaluation runs for a project.
type Tracker interface {
	// Check verifies that runs can be recorded for the project.
	Check(context.Context, Project) error
	// LogRun records run and returns a URL where it can be viewed.
	LogRun(context.Context, Project, Run) (string, error)
}
