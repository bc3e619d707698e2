package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gritcast/internal/types"
)

type sampleDTO struct {
	RouteID  string   `json:"route_id" validate:"required"`
	Latitude *float64 `json:"latitude" validate:"required"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	appErr := v.ValidateStruct(sampleDTO{})
	require.NotNil(t, appErr)

	assert.Equal(t, types.ErrCodeValidationMissingField, appErr.Code)
	assert.Contains(t, appErr.Details, "route_id")
	assert.Contains(t, appErr.Details, "latitude")
}

func TestValidateStructPasses(t *testing.T) {
	v := NewValidator()
	lat := 53.48

	assert.Nil(t, v.ValidateStruct(sampleDTO{RouteID: "R001", Latitude: &lat}))
}
