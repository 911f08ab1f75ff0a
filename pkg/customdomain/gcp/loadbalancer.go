package gcp

import (
	"fmt"

	compute "github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// deployLoadBalancer builds the backend half of the global external HTTPS
// load balancer in front of the gateway hostname:
//
//   - Internet NEG with a single (FQDN, 443) endpoint for the gateway
//   - Backend service speaking HTTP/2 to the endpoint, with the Host header
//     pinned to the gateway hostname so *.gateway.dev routing still works
//   - URL map sending everything to that backend service
//
// See:
// https://cloud.google.com/load-balancing/docs/negs/internet-neg-concepts
// https://cloud.google.com/api-gateway/docs/gateway-load-balancing
func (d *CustomDomain) deployLoadBalancer(ctx *pulumi.Context, gatewayHostname pulumi.StringOutput, args *CustomDomainArgs, networkAPIs []pulumi.Resource) (*compute.URLMap, error) {
	negName := d.newResourceName("neg", 63)
	neg, err := compute.NewGlobalNetworkEndpointGroup(ctx, negName, &compute.GlobalNetworkEndpointGroupArgs{
		Name:                pulumi.String(negName),
		Description:         pulumi.String("Internet NEG for the API Gateway hostname"),
		Project:             pulumi.String(d.Project),
		NetworkEndpointType: pulumi.String("INTERNET_FQDN_PORT"),
		DefaultPort:         pulumi.Int(443),
	}, pulumi.Parent(d), pulumi.DependsOn(networkAPIs))
	if err != nil {
		return nil, fmt.Errorf("failed to create network endpoint group: %w", err)
	}
	d.networkEndpointGroup = neg
	ctx.Export("network_endpoint_group_name", neg.Name)

	endpointName := d.newResourceName("endpoint", 63)
	endpoint, err := compute.NewGlobalNetworkEndpoint(ctx, endpointName, &compute.GlobalNetworkEndpointArgs{
		GlobalNetworkEndpointGroup: neg.Name,
		Fqdn:                       gatewayHostname,
		Port:                       pulumi.Int(443),
		Project:                    pulumi.String(d.Project),
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to attach gateway endpoint: %w", err)
	}
	d.networkEndpoint = endpoint

	backendName := d.newResourceName("lb-backend", 63)
	backend, err := compute.NewBackendService(ctx, backendName, &compute.BackendServiceArgs{
		Name:                pulumi.String(backendName),
		Description:         pulumi.String("Backend service for the API Gateway internet NEG"),
		Project:             pulumi.String(d.Project),
		LoadBalancingScheme: pulumi.String("EXTERNAL"),
		// The gateway serves HTTP/2 on its *.gateway.dev endpoint
		Protocol:  pulumi.String("HTTP2"),
		EnableCdn: pulumi.Bool(!args.DisableCDN),
		// The gateway routes by Host header, which still carries the custom
		// domain when the request leaves the load balancer
		CustomRequestHeaders: pulumi.StringArray{
			pulumi.Sprintf("Host: %s", gatewayHostname),
		},
		Backends: compute.BackendServiceBackendArray{
			&compute.BackendServiceBackendArgs{
				Group: neg.SelfLink,
			},
		},
	}, pulumi.Parent(d), pulumi.DependsOn([]pulumi.Resource{endpoint}))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend service: %w", err)
	}
	d.backendService = backend
	ctx.Export("backend_service_name", backend.Name)

	urlMapName := d.newResourceName("url-map", 63)
	urlMap, err := compute.NewURLMap(ctx, urlMapName, &compute.URLMapArgs{
		Name:           pulumi.String(urlMapName),
		Description:    pulumi.String("URL map to LB traffic for the API Gateway"),
		Project:        pulumi.String(d.Project),
		DefaultService: backend.SelfLink,
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to create URL map: %w", err)
	}
	d.urlMap = urlMap
	ctx.Export("url_map_name", urlMap.Name)

	return urlMap, nil
}
