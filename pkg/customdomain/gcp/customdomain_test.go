package gcp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adispen/gcp-apigateway-custom-domain/pkg/customdomain/gcp/preflight"
)

// domainMocks records every resource registration so tests can assert on the
// exact inputs the engine would send to the provider.
type domainMocks struct {
	mu       sync.Mutex
	recorded map[string]resource.PropertyMap

	zoneDNSName string
}

func newDomainMocks() *domainMocks {
	return &domainMocks{
		recorded:    make(map[string]resource.PropertyMap),
		zoneDNSName: "my-domain.com.",
	}
}

func (m *domainMocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	m.mu.Lock()
	m.recorded[args.TypeToken+"::"+args.Name] = args.Inputs
	m.mu.Unlock()

	outputs := args.Inputs.Copy()
	outputs["selfLink"] = resource.NewStringProperty(args.Name + "-self-link")

	switch args.TypeToken {
	case "gcp:apigateway/gateway:Gateway":
		outputs["defaultHostname"] = resource.NewStringProperty(args.Name + "-1a2b3c4d.uc.gateway.dev")
	case "gcp:compute/globalAddress:GlobalAddress":
		outputs["address"] = resource.NewStringProperty("203.0.113.10")
	case "gcp:dns/managedZone:ManagedZone":
		outputs["nameServers"] = resource.NewArrayProperty([]resource.PropertyValue{
			resource.NewStringProperty("ns-cloud-c1.googledomains.com."),
			resource.NewStringProperty("ns-cloud-c2.googledomains.com."),
		})
	case "gcp:serviceaccount/account:Account":
		outputs["email"] = resource.NewStringProperty(args.Name + "@test-project.iam.gserviceaccount.com")
	}

	return args.Name + "-id", outputs, nil
}

func (m *domainMocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	if args.Token == "gcp:dns/getManagedZone:getManagedZone" {
		name := args.Args["name"].StringValue()

		return resource.PropertyMap{
			"name":    resource.NewStringProperty(name),
			"dnsName": resource.NewStringProperty(m.zoneDNSName),
			"id":      resource.NewStringProperty("projects/test-project/managedZones/" + name),
			"nameServers": resource.NewArrayProperty([]resource.PropertyValue{
				resource.NewStringProperty("ns-cloud-c1.googledomains.com."),
				resource.NewStringProperty("ns-cloud-c2.googledomains.com."),
			}),
		}, nil
	}

	return resource.PropertyMap{}, nil
}

// inputs returns the recorded registration inputs for a resource, failing the
// test when the resource was never declared.
func (m *domainMocks) inputs(t *testing.T, token, name string) resource.PropertyMap {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	props, ok := m.recorded[token+"::"+name]
	require.True(t, ok, "resource %s::%s was not declared", token, name)

	return props
}

func (m *domainMocks) declared(token, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.recorded[token+"::"+name]

	return ok
}

func (m *domainMocks) declaredWithTokenPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []string
	for key := range m.recorded {
		if strings.HasPrefix(key, prefix) {
			matches = append(matches, key)
		}
	}

	return matches
}

// stubResolver serves canned NS answers so no test touches the network.
type stubResolver struct {
	hosts []string
	err   error
}

func (s *stubResolver) LookupNS(context.Context, string) ([]*net.NS, error) {
	if s.err != nil {
		return nil, s.err
	}
	records := make([]*net.NS, 0, len(s.hosts))
	for _, host := range s.hosts {
		records = append(records, &net.NS{Host: host})
	}

	return records, nil
}

func (s *stubResolver) LookupHost(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("not implemented")
}

func delegatedChecker() *preflight.Checker {
	return &preflight.Checker{Resolver: &stubResolver{
		hosts: []string{"ns-cloud-c1.googledomains.com."},
	}}
}

func foreignChecker() *preflight.Checker {
	return &preflight.Checker{Resolver: &stubResolver{
		hosts: []string{"ns1.registrar-parking.example."},
	}}
}

func testArgs() *CustomDomainArgs {
	return &CustomDomainArgs{
		Project:  "test-project",
		Region:   "us-central1",
		ZoneName: "example-zone",
		DNSName:  "my-domain.com.",
		Gateway: &GatewayArgs{
			BackendAddress: "https://backend.example.com",
		},
		DelegationChecker: delegatedChecker(),
	}
}

func TestCustomDomainDeclaresTheFullResourceSet(t *testing.T) {
	mocks := newDomainMocks()

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		domain, err := NewCustomDomain(ctx, "apigw", testArgs())
		require.NoError(t, err)

		assert.Equal(t, "https://api.my-domain.com", domain.DomainURL())
		require.NotNil(t, domain.Plan())
		require.NoError(t, domain.Plan().Validate())
		require.NotNil(t, domain.GetCertificate())
		require.NotNil(t, domain.GetGateway())

		return nil
	}, pulumi.WithMocks("project", "stack", mocks))
	require.NoError(t, err)

	// API Gateway
	api := mocks.inputs(t, "gcp:apigateway/api:Api", "api")
	assert.Equal(t, "api", api["apiId"].StringValue())

	apiConfig := mocks.inputs(t, "gcp:apigateway/apiConfig:ApiConfig", "api-config")
	assert.Equal(t, "api-config-", apiConfig["apiConfigIdPrefix"].StringValue())
	documents := apiConfig["openapiDocuments"].ArrayValue()
	require.Len(t, documents, 1)
	contents := documents[0].ObjectValue()["document"].ObjectValue()["contents"].StringValue()
	assert.NotEmpty(t, contents)

	gateway := mocks.inputs(t, "gcp:apigateway/gateway:Gateway", "api-gateway")
	assert.Equal(t, "api-gateway", gateway["gatewayId"].StringValue())
	assert.Equal(t, "us-central1", gateway["region"].StringValue())

	// Managed zone
	zone := mocks.inputs(t, "gcp:dns/managedZone:ManagedZone", "example-zone")
	assert.Equal(t, "my-domain.com.", zone["dnsName"].StringValue())

	// Internet NEG pointing at the gateway hostname
	neg := mocks.inputs(t, "gcp:compute/globalNetworkEndpointGroup:GlobalNetworkEndpointGroup", "apigw-neg")
	assert.Equal(t, "INTERNET_FQDN_PORT", neg["networkEndpointType"].StringValue())
	assert.Equal(t, float64(443), neg["defaultPort"].NumberValue())

	endpoint := mocks.inputs(t, "gcp:compute/globalNetworkEndpoint:GlobalNetworkEndpoint", "apigw-endpoint")
	assert.Equal(t, "apigw-neg", endpoint["globalNetworkEndpointGroup"].StringValue())
	assert.Equal(t, "api-gateway-1a2b3c4d.uc.gateway.dev", endpoint["fqdn"].StringValue())
	assert.Equal(t, float64(443), endpoint["port"].NumberValue())

	// Backend service speaking HTTP/2 with the Host header pinned
	backend := mocks.inputs(t, "gcp:compute/backendService:BackendService", "apigw-lb-backend")
	assert.Equal(t, "HTTP2", backend["protocol"].StringValue())
	assert.True(t, backend["enableCdn"].BoolValue())
	headers := backend["customRequestHeaders"].ArrayValue()
	require.Len(t, headers, 1)
	assert.Equal(t, "Host: api-gateway-1a2b3c4d.uc.gateway.dev", headers[0].StringValue())
	backends := backend["backends"].ArrayValue()
	require.Len(t, backends, 1)
	assert.Equal(t, "apigw-neg-self-link", backends[0].ObjectValue()["group"].StringValue())

	urlMap := mocks.inputs(t, "gcp:compute/uRLMap:URLMap", "apigw-url-map")
	assert.Equal(t, "apigw-lb-backend-self-link", urlMap["defaultService"].StringValue())

	// HTTPS frontend
	cert := mocks.inputs(t, "gcp:compute/managedSslCertificate:ManagedSslCertificate", "apigw-ssl-cert")
	domains := cert["managed"].ObjectValue()["domains"].ArrayValue()
	require.Len(t, domains, 1)
	assert.Equal(t, "api.my-domain.com", domains[0].StringValue())

	proxy := mocks.inputs(t, "gcp:compute/targetHttpsProxy:TargetHttpsProxy", "apigw-target-proxy")
	assert.Equal(t, "apigw-url-map-self-link", proxy["urlMap"].StringValue())
	certificates := proxy["sslCertificates"].ArrayValue()
	require.Len(t, certificates, 1)
	assert.Equal(t, "apigw-ssl-cert-self-link", certificates[0].StringValue())

	address := mocks.inputs(t, "gcp:compute/globalAddress:GlobalAddress", "apigw-fwd-rule-address")
	assert.Equal(t, "EXTERNAL", address["addressType"].StringValue())
	assert.Equal(t, "IPV4", address["ipVersion"].StringValue())

	rule := mocks.inputs(t, "gcp:compute/globalForwardingRule:GlobalForwardingRule", "apigw-fwd-rule")
	assert.Equal(t, "443", rule["portRange"].StringValue())
	assert.Equal(t, "EXTERNAL", rule["loadBalancingScheme"].StringValue())
	assert.Equal(t, "apigw-target-proxy-self-link", rule["target"].StringValue())
	assert.Equal(t, "203.0.113.10", rule["ipAddress"].StringValue())

	// A record pointing the domain at the reserved address
	record := mocks.inputs(t, "gcp:dns/recordSet:RecordSet", "apigw-a-record")
	assert.Equal(t, "api.my-domain.com.", record["name"].StringValue())
	assert.Equal(t, "A", record["type"].StringValue())
	assert.Equal(t, float64(300), record["ttl"].NumberValue())
	assert.Equal(t, "example-zone", record["managedZone"].StringValue())
	rrdatas := record["rrdatas"].ArrayValue()
	require.Len(t, rrdatas, 1)
	assert.Equal(t, "203.0.113.10", rrdatas[0].StringValue())

	// Required Google APIs enabled
	for _, name := range []string{
		"apigw-apigateway-api",
		"apigw-servicemanagement-api",
		"apigw-servicecontrol-api",
		"apigw-compute-api",
		"apigw-dns-api",
	} {
		service := mocks.inputs(t, "gcp:projects/service:Service", name)
		assert.False(t, service["disableOnDestroy"].BoolValue())
	}
}

func TestCustomDomainDisablesCDNWhenAsked(t *testing.T) {
	mocks := newDomainMocks()

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		args := testArgs()
		args.DisableCDN = true

		_, err := NewCustomDomain(ctx, "apigw", args)

		return err
	}, pulumi.WithMocks("project", "stack", mocks))
	require.NoError(t, err)

	backend := mocks.inputs(t, "gcp:compute/backendService:BackendService", "apigw-lb-backend")
	assert.False(t, backend["enableCdn"].BoolValue())
}

func TestCustomDomainRoutesToExistingGateway(t *testing.T) {
	mocks := newDomainMocks()

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		args := testArgs()
		args.Gateway = &GatewayArgs{
			ExistingHostname: "my-gateway-9f8e7d6c.uc.gateway.dev",
		}

		domain, err := NewCustomDomain(ctx, "apigw", args)
		require.NoError(t, err)

		assert.Nil(t, domain.GetGateway())
		assert.Nil(t, domain.GetAPIConfig())

		return nil
	}, pulumi.WithMocks("project", "stack", mocks))
	require.NoError(t, err)

	assert.Empty(t, mocks.declaredWithTokenPrefix("gcp:apigateway/"))
	assert.False(t, mocks.declared("gcp:projects/service:Service", "apigw-apigateway-api"))

	endpoint := mocks.inputs(t, "gcp:compute/globalNetworkEndpoint:GlobalNetworkEndpoint", "apigw-endpoint")
	assert.Equal(t, "my-gateway-9f8e7d6c.uc.gateway.dev", endpoint["fqdn"].StringValue())

	backend := mocks.inputs(t, "gcp:compute/backendService:BackendService", "apigw-lb-backend")
	headers := backend["customRequestHeaders"].ArrayValue()
	require.Len(t, headers, 1)
	assert.Equal(t, "Host: my-gateway-9f8e7d6c.uc.gateway.dev", headers[0].StringValue())
}

func TestCustomDomainUsesExistingZone(t *testing.T) {
	mocks := newDomainMocks()

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		args := testArgs()
		args.UseExistingZone = true

		domain, err := NewCustomDomain(ctx, "apigw", args)
		require.NoError(t, err)

		assert.Nil(t, domain.GetManagedZone())

		return nil
	}, pulumi.WithMocks("project", "stack", mocks))
	require.NoError(t, err)

	assert.False(t, mocks.declared("gcp:dns/managedZone:ManagedZone", "example-zone"))

	record := mocks.inputs(t, "gcp:dns/recordSet:RecordSet", "apigw-a-record")
	assert.Equal(t, "example-zone", record["managedZone"].StringValue())
}

func TestCustomDomainRejectsZoneServingAnotherDomain(t *testing.T) {
	mocks := newDomainMocks()
	mocks.zoneDNSName = "other-domain.com."

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		args := testArgs()
		args.UseExistingZone = true

		_, err := NewCustomDomain(ctx, "apigw", args)

		return err
	}, pulumi.WithMocks("project", "stack", mocks))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "serves")
}

func TestCustomDomainWarnsOnMissingDelegationByDefault(t *testing.T) {
	mocks := newDomainMocks()

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		args := testArgs()
		args.DelegationChecker = foreignChecker()

		_, err := NewCustomDomain(ctx, "apigw", args)

		return err
	}, pulumi.WithMocks("project", "stack", mocks))
	require.NoError(t, err)

	// The certificate is still requested, it just provisions slowly
	cert := mocks.inputs(t, "gcp:compute/managedSslCertificate:ManagedSslCertificate", "apigw-ssl-cert")
	domains := cert["managed"].ObjectValue()["domains"].ArrayValue()
	require.Len(t, domains, 1)
	assert.Equal(t, "api.my-domain.com", domains[0].StringValue())
}

func TestCustomDomainFailsOnMissingDelegationWhenRequired(t *testing.T) {
	mocks := newDomainMocks()

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		args := testArgs()
		args.DelegationChecker = foreignChecker()
		args.RequireDelegatedZone = true

		_, err := NewCustomDomain(ctx, "apigw", args)

		return err
	}, pulumi.WithMocks("project", "stack", mocks))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to request certificate")
}

func TestCustomDomainValidatesArgsUpFront(t *testing.T) {
	mocks := newDomainMocks()

	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		args := testArgs()
		args.ZoneName = ""

		_, err := NewCustomDomain(ctx, "apigw", args)

		return err
	}, pulumi.WithMocks("project", "stack", mocks))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZoneName")
}
