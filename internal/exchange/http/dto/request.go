// Package dto provides data transfer objects for the browser HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/inesdata/dataspace-tools/internal/imaging"
	customValidation "github.com/inesdata/dataspace-tools/internal/validation"
)

// LoginRequest contains the dataspace user credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
		),
	)
}

// SynthesizeRequest selects the image synthesis method and its options.
// Unknown methods fall back to TINTO.
type SynthesizeRequest struct {
	Method  string            `json:"method"`
	Problem string            `json:"problem"`
	Params  map[string]string `json:"params"`
}

// Validate checks if the synthesize request is valid.
func (r *SynthesizeRequest) Validate() error {
	problems := make([]any, 0, len(imaging.Problems))
	for _, p := range imaging.Problems {
		problems = append(problems, p)
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Method, validation.Length(0, 64)),
		validation.Field(&r.Problem, validation.In(problems...)),
		validation.Field(&r.Params, validation.Each(validation.Length(0, 256))),
	)
}

// ToImagingRequest maps the DTO to an imaging request.
func (r *SynthesizeRequest) ToImagingRequest() imaging.Request {
	return imaging.Request{
		Method:  imaging.NormalizeMethod(r.Method),
		Problem: imaging.NormalizeProblem(r.Problem),
		Params:  r.Params,
	}
}
