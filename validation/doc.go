// Package validation validates configuration and request structs using
// struct tags and reports failures as INVALID_INPUT errors with a per-field
// breakdown.
//
//	type runRequest struct {
//	    Executable string `json:"executable" validate:"required_without=Template"`
//	    Timeout    string `json:"timeout" validate:"omitempty,duration"`
//	}
//	err := validation.Validate(req)
package validation
