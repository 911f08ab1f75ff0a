package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validArgs() *CustomDomainArgs {
	return &CustomDomainArgs{
		Project:  "test-project",
		Region:   "us-central1",
		ZoneName: "example-zone",
		DNSName:  "my-domain.com.",
		Gateway: &GatewayArgs{
			BackendAddress: "https://backend.example.com",
		},
	}
}

func TestApplyDefaultsFillsCanonicalValues(t *testing.T) {
	t.Parallel()

	args := validArgs()

	require.NoError(t, applyCustomDomainDefaults(args))

	assert.Equal(t, "api", args.Subdomain)
	assert.Equal(t, 300, args.RecordTTLSeconds)
	assert.Equal(t, "api", args.Gateway.APIID)
	assert.Equal(t, "api-gateway", args.Gateway.GatewayID)
	assert.False(t, args.DisableCDN)
}

func TestApplyDefaultsNormalizesDNSName(t *testing.T) {
	t.Parallel()

	args := validArgs()
	args.DNSName = "My-Domain.com"

	require.NoError(t, applyCustomDomainDefaults(args))

	assert.Equal(t, "my-domain.com.", args.DNSName)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	args := validArgs()
	args.Subdomain = "gw"
	args.RecordTTLSeconds = 60
	args.Gateway.APIID = "orders"
	args.Gateway.GatewayID = "orders-gateway"

	require.NoError(t, applyCustomDomainDefaults(args))

	assert.Equal(t, "gw", args.Subdomain)
	assert.Equal(t, 60, args.RecordTTLSeconds)
	assert.Equal(t, "orders", args.Gateway.APIID)
	assert.Equal(t, "orders-gateway", args.Gateway.GatewayID)
}

func TestApplyDefaultsRequiresCoreArguments(t *testing.T) {
	t.Parallel()

	for name, mutate := range map[string]func(*CustomDomainArgs){
		"project":  func(args *CustomDomainArgs) { args.Project = "" },
		"zone":     func(args *CustomDomainArgs) { args.ZoneName = "" },
		"dns name": func(args *CustomDomainArgs) { args.DNSName = "" },
		"region":   func(args *CustomDomainArgs) { args.Region = "" },
	} {
		args := validArgs()
		mutate(args)
		assert.Error(t, applyCustomDomainDefaults(args), "missing %s", name)
	}
}

func TestApplyDefaultsRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	args := validArgs()
	args.DNSName = "com"
	assert.Error(t, applyCustomDomainDefaults(args))

	args = validArgs()
	args.Subdomain = "api-"
	assert.Error(t, applyCustomDomainDefaults(args))

	args = validArgs()
	args.RecordTTLSeconds = -1
	assert.Error(t, applyCustomDomainDefaults(args))
}

func TestApplyDefaultsRequiresAnUpstream(t *testing.T) {
	t.Parallel()

	args := validArgs()
	args.Gateway.BackendAddress = ""

	err := applyCustomDomainDefaults(args)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BackendAddress")
}

func TestApplyDefaultsWithExistingGateway(t *testing.T) {
	t.Parallel()

	// No region, no upstream, no ids needed when the gateway already runs
	args := validArgs()
	args.Region = ""
	args.Gateway = &GatewayArgs{
		ExistingHostname: "my-gateway-1a2b3c4d.uc.gateway.dev",
	}

	require.NoError(t, applyCustomDomainDefaults(args))

	assert.Empty(t, args.Gateway.APIID)
	assert.Empty(t, args.Gateway.GatewayID)
}

func TestApplyDefaultsDefaultsNilGateway(t *testing.T) {
	t.Parallel()

	args := validArgs()
	args.Gateway = nil

	err := applyCustomDomainDefaults(args)

	// A nil gateway has no upstream to route to
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BackendAddress")
}
