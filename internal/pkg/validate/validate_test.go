package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-credential-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_ValidSignup(t *testing.T) {
	err := Struct(domain.SignupRequest{Email: "alice@x.com", Password: "password123"})
	assert.NoError(t, err)
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(domain.SignupRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "field 'email' failed 'email'")
	assert.Contains(t, err.Error(), "field 'password' failed 'min'")
}

func TestStruct_PasswordOverBcryptLimit(t *testing.T) {
	err := Struct(domain.SignupRequest{Email: "alice@x.com", Password: strings.Repeat("p", 73)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed 'maxbytes'")
}

func TestStruct_MultibytePasswordOverBcryptLimit(t *testing.T) {
	// 40 runes, 80 bytes.
	err := Struct(domain.SignupRequest{Email: "alice@x.com", Password: strings.Repeat("é", 40)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "field 'password' failed 'maxbytes'")

	err = Struct(domain.LoginRequest{Email: "alice@x.com", Password: strings.Repeat("é", 40)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed 'maxbytes'")
}

func TestStruct_MultibytePasswordAtBcryptLimit(t *testing.T) {
	err := Struct(domain.SignupRequest{Email: "alice@x.com", Password: strings.Repeat("é", 36)})
	assert.NoError(t, err)
}

func TestStruct_LoginRequiresBothFields(t *testing.T) {
	err := Struct(domain.LoginRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'email' failed 'required'")
	assert.Contains(t, err.Error(), "field 'password' failed 'required'")
}
