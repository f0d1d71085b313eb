package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// statusChangeRequest mirrors the triage status payload shape
type statusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type accountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeEmail bool, includePassword bool) bool {
			reqMap := make(map[string]interface{})

			if includeEmail {
				reqMap["email"] = "ana@tienda.com"
			}
			if includePassword {
				reqMap["password"] = "password123"
			}

			allFieldsPresent := includeEmail && includePassword

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload accountRequest
			err := DecodeAndValidate(req, &payload)

			if allFieldsPresent {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDecodeAndValidate_OneOfRejectsUnknownStatus(t *testing.T) {
	for _, status := range []string{"pending", "approved", "rejected"} {
		body, _ := json.Marshal(map[string]string{"status": status})
		req := httptest.NewRequest("PATCH", "/test", bytes.NewReader(body))

		var payload statusChangeRequest
		if err := DecodeAndValidate(req, &payload); err != nil {
			t.Errorf("expected %q to validate, got %v", status, err)
		}
	}

	body, _ := json.Marshal(map[string]string{"status": "archived"})
	req := httptest.NewRequest("PATCH", "/test", bytes.NewReader(body))

	var payload statusChangeRequest
	err := DecodeAndValidate(req, &payload)
	if err == nil {
		t.Fatal("expected unknown status to fail validation")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) != 1 || formatted[0].Field != "Status" {
		t.Errorf("expected a single Status error, got %v", formatted)
	}
}

func TestDecodeAndValidate_MalformedJSONIsAnError(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("{not json")))

	var payload accountRequest
	if err := DecodeAndValidate(req, &payload); err == nil {
		t.Fatal("expected malformed JSON to fail")
	}
}

func TestFormatValidationErrors_MapsTagsToMessages(t *testing.T) {
	var payload accountRequest
	err := ValidateRequest(payload)
	if err == nil {
		t.Fatal("expected validation failure")
	}

	formatted := FormatValidationErrors(err)
	messages := map[string]string{}
	for _, e := range formatted {
		messages[e.Field] = e.Message
	}

	if messages["Email"] != "This field is required" {
		t.Errorf("unexpected email message: %q", messages["Email"])
	}
	if messages["Password"] != "This field is required" {
		t.Errorf("unexpected password message: %q", messages["Password"])
	}
}
