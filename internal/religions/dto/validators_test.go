package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateReligionRequestValidation(t *testing.T) {
	validate := NewValidator()

	tests := []struct {
		name    string
		req     CreateReligionRequest
		wantErr bool
	}{
		{"valid", CreateReligionRequest{Name: "Order of Embers", Deity: "craft"}, false},
		{"unknown deity", CreateReligionRequest{Name: "Order of Embers", Deity: "sea"}, true},
		{"short name", CreateReligionRequest{Name: "Ox", Deity: "wild"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
