package exercise

import (
	"fmt"
	"net/url"
	"strings"
)

// Params are the query parameters an exercise is launched with.
type Params struct {
	DataURL      string
	UniqueID     string
	CourseID     string
	AssignmentID string
	NotebookID   string
}

func ParseParams(values url.Values) Params {
	get := func(name string) string {
		return strings.TrimSpace(values.Get(name))
	}
	return Params{
		DataURL:      get("data"),
		UniqueID:     get("unique_id"),
		CourseID:     get("course_id"),
		AssignmentID: get("assignment_id"),
		NotebookID:   firstNonEmpty(get("notitieblok_id"), get("notitieblokId"), get("notities_id"), get("unique_id")),
	}
}

func (p Params) Values() url.Values {
	values := url.Values{}
	set := func(name, value string) {
		if value != "" {
			values.Set(name, value)
		}
	}
	set("data", p.DataURL)
	set("unique_id", p.UniqueID)
	set("course_id", p.CourseID)
	set("assignment_id", p.AssignmentID)
	if p.NotebookID != p.UniqueID {
		set("notitieblok_id", p.NotebookID)
	}
	return values
}

// Requirements declares which parameters a tool needs before it may fetch.
type Requirements struct {
	// DataOptional allows a launch without a data URL.
	DataOptional bool
	// UniqueID requires unique_id in the query.
	UniqueID bool
	// UniqueIDFromData also accepts unique_id from the document; checked after the fetch.
	UniqueIDFromData bool
	// CourseAssignment requires course_id and assignment_id unless unique_id is present.
	CourseAssignment bool
	NotebookID       bool
}

// Check reports the first missing parameter. It never touches the network.
func (p Params) Check(req Requirements) error {
	if !req.DataOptional && p.DataURL == "" {
		return fmt.Errorf("%w: data", ErrMissingParameter)
	}
	if req.UniqueID && !req.UniqueIDFromData && p.UniqueID == "" {
		return fmt.Errorf("%w: unique_id", ErrMissingParameter)
	}
	if req.CourseAssignment && p.UniqueID == "" {
		if p.CourseID == "" {
			return fmt.Errorf("%w: course_id", ErrMissingParameter)
		}
		if p.AssignmentID == "" {
			return fmt.Errorf("%w: assignment_id", ErrMissingParameter)
		}
	}
	if req.NotebookID && p.NotebookID == "" {
		return fmt.Errorf("%w: notitieblok_id", ErrMissingParameter)
	}
	return nil
}

// InstanceKey identifies the assignment instance.
func (p Params) InstanceKey() string {
	if p.UniqueID != "" {
		return p.UniqueID
	}
	if p.CourseID != "" && p.AssignmentID != "" {
		return p.CourseID + ":" + p.AssignmentID
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
