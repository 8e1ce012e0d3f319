package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/quickstack-seed/pkg/crypto"
	"github.com/ekaya-inc/quickstack-seed/pkg/facts"
)

type failingSecrets struct{}

func (failingSecrets) Generate() (string, error) { return "", errors.New("entropy exhausted") }

func TestBuildOverrides(t *testing.T) {
	layout := facts.Layout{PrimaryInterface: "eth0", SecondaryInterface: "eth1"}

	overrides, err := BuildOverrides(layout, "example.com", testDeployment(), crypto.NewHexSecretGenerator())
	require.NoError(t, err)

	assert.Len(t, overrides, 19)
	assert.Equal(t, "true", overrides["verbose"])
	assert.Equal(t, "eth1", overrides["private_interface"])
	assert.Equal(t, "eth0", overrides["public_interface"])
	assert.Equal(t, "PRIV_RANGE", overrides["fixed_network_range"])
	assert.Equal(t, "PUB_RANGE", overrides["floating_network_range"])
	assert.Equal(t, "PRIV_IP", overrides["pacemaker_priv_floating_ip"])
	assert.Equal(t, "PUB_IP", overrides["pacemaker_pub_floating_ip"])
	assert.Equal(t, "admin@example.com", overrides["admin_email"])
	assert.NotContains(t, overrides, "controller_priv_floating_ip")
	assert.NotContains(t, overrides, "controller_pub_floating_ip")

	require.Len(t, SecretParameters, 11)
	seen := make(map[string]bool)
	for _, key := range SecretParameters {
		secret := overrides[key]
		assert.Regexp(t, hex32, secret, key)
		assert.False(t, seen[secret], "secret for %s is not independent", key)
		seen[secret] = true
	}
}

func TestBuildOverrides_SecretFailure(t *testing.T) {
	_, err := BuildOverrides(facts.Layout{}, "example.com", testDeployment(), failingSecrets{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_password")
}
