// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package validation

import (
	"strings"
	"testing"
)

type recommendPayload struct {
	BookTitle string `validate:"required"`
	TopN      int    `validate:"required,gte=1"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(&recommendPayload{BookTitle: "1984", TopN: 5})
	if err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(&recommendPayload{TopN: 5})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error for missing title")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "BookTitle is required") {
		t.Errorf("Message = %q, want it to mention BookTitle is required", apiErr.Message)
	}
	if apiErr.Details["field"] != "BookTitle" {
		t.Errorf("Details[field] = %v, want BookTitle", apiErr.Details["field"])
	}
}

func TestValidateStructGTE(t *testing.T) {
	err := ValidateStruct(&recommendPayload{BookTitle: "1984", TopN: -1})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error for negative top_n")
	}
	if !strings.Contains(err.Error(), "greater than or equal to 1") {
		t.Errorf("Error() = %q, want gte message", err.Error())
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	err := ValidateStruct(&recommendPayload{})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want errors for empty payload")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has unexpected type %T", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("len(fields) = %d, want 2", len(fields))
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator returned different instances")
	}
}
