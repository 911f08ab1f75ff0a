package gcp

import (
	apigateway "github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/apigateway"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/dns"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/adispen/gcp-apigateway-custom-domain/pkg/customdomain/gcp/plan"
)

// DomainURL returns the public URL the component publishes,
// e.g. "https://api.my-domain.com".
func (d *CustomDomain) DomainURL() string {
	return d.domainURL
}

// GatewayHostname returns the gateway hostname the load balancer targets,
// either the created gateway's default hostname or the configured existing one.
func (d *CustomDomain) GatewayHostname() pulumi.StringOutput {
	return d.gatewayHostname
}

// Plan returns the validated dependency graph of the declared resources.
func (d *CustomDomain) Plan() *plan.Graph {
	return d.plan
}

// GetAPI returns the API Gateway API, or nil when routing to an existing gateway.
func (d *CustomDomain) GetAPI() *apigateway.Api {
	return d.api
}

// GetAPIConfig returns the API Gateway configuration, or nil when routing to
// an existing gateway.
func (d *CustomDomain) GetAPIConfig() *apigateway.ApiConfig {
	return d.apiConfig
}

// GetGateway returns the API Gateway instance, or nil when routing to an
// existing gateway.
func (d *CustomDomain) GetGateway() *apigateway.Gateway {
	return d.gateway
}

// GetGatewayServiceAccount returns the gateway's dedicated service account.
func (d *CustomDomain) GetGatewayServiceAccount() *serviceaccount.Account {
	return d.gatewayServiceAccount
}

// GetManagedZone returns the created DNS zone, or nil when an existing zone
// was looked up.
func (d *CustomDomain) GetManagedZone() *dns.ManagedZone {
	return d.managedZone
}

// GetDNSRecord returns the A record pointing the domain at the load balancer.
func (d *CustomDomain) GetDNSRecord() *dns.RecordSet {
	return d.record
}

// GetNetworkEndpointGroup returns the internet NEG fronting the gateway.
func (d *CustomDomain) GetNetworkEndpointGroup() *compute.GlobalNetworkEndpointGroup {
	return d.networkEndpointGroup
}

// GetNetworkEndpoint returns the (FQDN, port) endpoint attached to the NEG.
func (d *CustomDomain) GetNetworkEndpoint() *compute.GlobalNetworkEndpoint {
	return d.networkEndpoint
}

// GetBackendService returns the backend service between URL map and NEG.
func (d *CustomDomain) GetBackendService() *compute.BackendService {
	return d.backendService
}

// GetURLMap returns the URL map for the load balancer.
func (d *CustomDomain) GetURLMap() *compute.URLMap {
	return d.urlMap
}

// GetCertificate returns the managed SSL certificate for the domain.
func (d *CustomDomain) GetCertificate() *compute.ManagedSslCertificate {
	return d.certificate
}

// GetHTTPSProxy returns the target HTTPS proxy binding certificate and URL map.
func (d *CustomDomain) GetHTTPSProxy() *compute.TargetHttpsProxy {
	return d.httpsProxy
}

// GetGlobalAddress returns the reserved public IPv4 address.
func (d *CustomDomain) GetGlobalAddress() *compute.GlobalAddress {
	return d.globalAddress
}

// GetForwardingRule returns the global forwarding rule for the load balancer.
func (d *CustomDomain) GetForwardingRule() *compute.GlobalForwardingRule {
	return d.forwardingRule
}
