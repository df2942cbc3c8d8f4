package validator

import (
	"testing"
)

type testStruct struct {
	ConversationID string `validate:"required"`
	Content        string `validate:"required"`
	Limit          int    `validate:"gte=0,lte=100"`
	Optional       string
}

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   any
		wantErr bool
		fields  []string
	}{
		{
			name: "Valid",
			input: testStruct{
				ConversationID: "c1",
				Content:        "hello",
				Limit:          20,
			},
			wantErr: false,
		},
		{
			name: "MissingRequiredFields",
			input: testStruct{
				Limit: 20,
			},
			wantErr: true,
			fields:  []string{"ConversationID", "Content"},
		},
		{
			name: "LimitOutOfRange",
			input: testStruct{
				ConversationID: "c1",
				Content:        "hello",
				Limit:          500,
			},
			wantErr: true,
			fields:  []string{"Limit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateStruct(tt.input)

			if tt.wantErr && len(errs) == 0 {
				t.Fatal("ValidateStruct() expected errors but got none")
			}
			if !tt.wantErr && len(errs) > 0 {
				t.Fatalf("ValidateStruct() got unexpected errors: %v", errs)
			}

			for _, want := range tt.fields {
				found := false
				for _, e := range errs {
					if e.Field == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Expected validation error for field %s, but got none", want)
				}
			}
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		value   any
		tag     string
		wantErr bool
	}{
		{name: "RequiredPresent", value: "value", tag: "required", wantErr: false},
		{name: "RequiredEmpty", value: "", tag: "required", wantErr: true},
		{name: "MaxOK", value: "abc", tag: "max=5", wantErr: false},
		{name: "MaxExceeded", value: "abcdef", tag: "max=5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.value, tt.tag)

			if tt.wantErr && len(errs) == 0 {
				t.Error("Validate() expected errors but got none")
			}
			if !tt.wantErr && len(errs) > 0 {
				t.Errorf("Validate() got unexpected errors: %v", errs)
			}
		})
	}
}
