package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, "quarterly numbers", escapeLikePattern("quarterly numbers"))
	assert.Equal(t, `50\% off everything`, escapeLikePattern("50% off everything"))
	assert.Equal(t, `status\_update`, escapeLikePattern("status_update"))
	assert.Equal(t, `path \\\%`, escapeLikePattern(`path \%`))
	assert.Equal(t, "", escapeLikePattern(""))
}
