package gcp

import (
	"fmt"
	"log"

	apigateway "github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/apigateway"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/dns"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/adispen/gcp-apigateway-custom-domain/pkg/customdomain/gcp/plan"
)

// CustomDomain is a component resource that publishes a Google API Gateway
// at https://<subdomain>.<domain>. It declares the DNS zone and A record,
// the global HTTPS load balancer over an internet NEG, the managed TLS
// certificate, and optionally the gateway itself.
type CustomDomain struct {
	pulumi.ResourceState

	Project string
	Region  string
	Labels  map[string]string

	prefix string
	args   *CustomDomainArgs
	plan   *plan.Graph

	// API Gateway resources, nil when routing to an existing gateway
	gatewayServiceAccount *serviceaccount.Account
	api                   *apigateway.Api
	apiConfig             *apigateway.ApiConfig
	gateway               *apigateway.Gateway

	// DNS resources; the zone is nil when looked up rather than created
	managedZone *dns.ManagedZone
	record      *dns.RecordSet

	// Load balancer backend
	networkEndpointGroup *compute.GlobalNetworkEndpointGroup
	networkEndpoint      *compute.GlobalNetworkEndpoint
	backendService       *compute.BackendService
	urlMap               *compute.URLMap

	// Load balancer frontend
	certificate    *compute.ManagedSslCertificate
	httpsProxy     *compute.TargetHttpsProxy
	globalAddress  *compute.GlobalAddress
	forwardingRule *compute.GlobalForwardingRule

	gatewayHostname pulumi.StringOutput
	domainURL       string
}

// NewCustomDomain declares the full set of resources behind the custom
// domain. The component name doubles as the resource name prefix, so a
// component named "apigw" yields "apigw-neg", "apigw-lb-backend" and so on.
func NewCustomDomain(ctx *pulumi.Context, name string, args *CustomDomainArgs, opts ...pulumi.ResourceOption) (*CustomDomain, error) {
	if args == nil {
		args = &CustomDomainArgs{}
	}
	if err := applyCustomDomainDefaults(args); err != nil {
		return nil, err
	}

	d := &CustomDomain{
		Project: args.Project,
		Region:  args.Region,
		Labels:  args.Labels,
		prefix:  name,
		args:    args,
	}

	err := ctx.RegisterComponentResource("apigateway-custom-domain:gcp:CustomDomain", name, d, opts...)
	if err != nil {
		return nil, err
	}

	if err := d.deploy(ctx); err != nil {
		return nil, err
	}

	err = ctx.RegisterResourceOutputs(d, pulumi.Map{
		"domainUrl":       pulumi.String(d.domainURL),
		"gatewayHostname": d.gatewayHostname,
		"ipAddress":       d.globalAddress.Address,
		"recordName":      d.record.Name,
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *CustomDomain) deploy(ctx *pulumi.Context) error {
	args := d.args

	// Validate the reference structure of the declaration set before asking
	// the engine to realize it.
	graph := d.buildPlan(args)
	if err := graph.Validate(); err != nil {
		return fmt.Errorf("invalid resource plan: %w", err)
	}
	d.plan = graph

	d.domainURL = fmt.Sprintf("https://%s", certificateDomain(args.Subdomain, args.DNSName))

	if err := ctx.Log.Info(fmt.Sprintf("Publishing API Gateway at %s", d.domainURL), nil); err != nil {
		log.Printf("failed to log deployment with Pulumi context: %v", err)
	}

	networkAPIs, err := d.enableServiceAPIs(ctx, networkServiceAPIs)
	if err != nil {
		return err
	}

	hostname, err := d.deployAPIGateway(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to deploy API Gateway: %w", err)
	}
	d.gatewayHostname = hostname

	zone, err := d.deployDNSZone(ctx, args, networkAPIs)
	if err != nil {
		return fmt.Errorf("failed to deploy DNS zone: %w", err)
	}

	urlMap, err := d.deployLoadBalancer(ctx, hostname, args, networkAPIs)
	if err != nil {
		return fmt.Errorf("failed to deploy load balancer: %w", err)
	}

	address, err := d.deployFrontend(ctx, zone, urlMap, args)
	if err != nil {
		return fmt.Errorf("failed to deploy HTTPS frontend: %w", err)
	}

	record, err := d.deployDNSRecord(ctx, zone, address, args)
	if err != nil {
		return fmt.Errorf("failed to deploy DNS record: %w", err)
	}
	d.record = record

	ctx.Export("domain_url", pulumi.String(d.domainURL))
	ctx.Export("resource_plan_dot", pulumi.String(graph.DOT()))

	return nil
}

// buildPlan mirrors every resource the component declares, with an edge per
// cross-resource reference. Creation follows the graph's topological order;
// deletion is the reverse.
func (d *CustomDomain) buildPlan(args *CustomDomainArgs) *plan.Graph {
	g := plan.NewGraph()

	zone := g.AddNode("ManagedZone", args.ZoneName)

	var gateway plan.Node
	createGateway := args.Gateway.ExistingHostname == ""
	if createGateway {
		account := g.AddNode("ServiceAccount", d.newResourceName("gateway-account", 28))
		api := g.AddNode("Api", args.Gateway.APIID)
		config := g.AddNode("ApiConfig", args.Gateway.APIID+"-config")
		g.AddEdge(config, api)
		g.AddEdge(config, account)

		gateway = g.AddNode("Gateway", args.Gateway.GatewayID)
		g.AddEdge(gateway, config)
	}

	neg := g.AddNode("NetworkEndpointGroup", d.newResourceName("neg", 63))
	endpoint := g.AddNode("NetworkEndpoint", d.newResourceName("endpoint", 63))
	backend := g.AddNode("BackendService", d.newResourceName("lb-backend", 63))
	urlMap := g.AddNode("UrlMap", d.newResourceName("url-map", 63))
	cert := g.AddNode("ManagedSslCertificate", d.newResourceName("ssl-cert", 63))
	proxy := g.AddNode("TargetHttpsProxy", d.newResourceName("target-proxy", 63))
	address := g.AddNode("GlobalAddress", d.newResourceName("fwd-rule-address", 63))
	rule := g.AddNode("GlobalForwardingRule", d.newResourceName("fwd-rule", 63))
	record := g.AddNode("RecordSet", absoluteRecordName(args.Subdomain, args.DNSName))

	g.AddEdge(endpoint, neg)
	g.AddEdge(backend, neg)
	if createGateway {
		// The endpoint FQDN and the backend's Host header carry the
		// gateway's default hostname
		g.AddEdge(endpoint, gateway)
		g.AddEdge(backend, gateway)
	}
	g.AddEdge(urlMap, backend)
	g.AddEdge(cert, zone)
	g.AddEdge(proxy, urlMap)
	g.AddEdge(proxy, cert)
	g.AddEdge(rule, proxy)
	g.AddEdge(rule, address)
	g.AddEdge(record, zone)
	g.AddEdge(record, address)

	return g
}
