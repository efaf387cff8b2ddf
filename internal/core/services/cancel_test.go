package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelToken(t *testing.T) {
	token := NewCancelToken()
	assert.False(t, token.Cancelled())

	token.Cancel()
	assert.True(t, token.Cancelled())

	token.Cancel()
	assert.True(t, token.Cancelled())
}

func TestCancelToken_Nil(t *testing.T) {
	var token *CancelToken
	assert.False(t, token.Cancelled())
}
