package exercise

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{
			name:  "data and unique id",
			query: "data=https%3A%2F%2Fexample.org%2Fd.json&unique_id=+test1+",
			want:  Params{DataURL: "https://example.org/d.json", UniqueID: "test1", NotebookID: "test1"},
		},
		{
			name:  "notebook aliases take precedence over unique id",
			query: "notitieblokId=nb-2&unique_id=u",
			want:  Params{UniqueID: "u", NotebookID: "nb-2"},
		},
		{
			name:  "notities_id alias",
			query: "notities_id=nb-3",
			want:  Params{NotebookID: "nb-3"},
		},
		{
			name:  "course and assignment",
			query: "course_id=c1&assignment_id=a9",
			want:  Params{CourseID: "c1", AssignmentID: "a9"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ParseParams(values))
		})
	}
}

func TestParams_Check(t *testing.T) {
	tests := []struct {
		name        string
		params      Params
		req         Requirements
		wantMissing string
	}{
		{
			name:        "data is required by default",
			params:      Params{UniqueID: "u"},
			wantMissing: "data",
		},
		{
			name:   "data optional",
			params: Params{},
			req:    Requirements{DataOptional: true},
		},
		{
			name:        "unique id required",
			params:      Params{DataURL: "d"},
			req:         Requirements{UniqueID: true},
			wantMissing: "unique_id",
		},
		{
			name:   "unique id may come from the document",
			params: Params{DataURL: "d"},
			req:    Requirements{UniqueID: true, UniqueIDFromData: true},
		},
		{
			name:        "course id required without unique id",
			params:      Params{DataURL: "d", AssignmentID: "a"},
			req:         Requirements{CourseAssignment: true},
			wantMissing: "course_id",
		},
		{
			name:        "assignment id required without unique id",
			params:      Params{DataURL: "d", CourseID: "c"},
			req:         Requirements{CourseAssignment: true},
			wantMissing: "assignment_id",
		},
		{
			name:   "unique id replaces the course pair",
			params: Params{DataURL: "d", UniqueID: "u"},
			req:    Requirements{CourseAssignment: true},
		},
		{
			name:        "notebook id required",
			params:      Params{DataURL: "d"},
			req:         Requirements{NotebookID: true},
			wantMissing: "notitieblok_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Check(tt.req)
			if tt.wantMissing == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrMissingParameter))
			assert.Contains(t, err.Error(), tt.wantMissing)
		})
	}
}

func TestParams_InstanceKey(t *testing.T) {
	assert.Equal(t, "u", Params{UniqueID: "u", CourseID: "c", AssignmentID: "a"}.InstanceKey())
	assert.Equal(t, "c:a", Params{CourseID: "c", AssignmentID: "a"}.InstanceKey())
	assert.Equal(t, "", Params{CourseID: "c"}.InstanceKey())
}
