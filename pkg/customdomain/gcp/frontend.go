package gcp

import (
	"context"
	"fmt"
	"log"

	compute "github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/adispen/gcp-apigateway-custom-domain/pkg/customdomain/gcp/preflight"
)

// deployFrontend builds the internet-facing half of the load balancer: the
// managed certificate for the subdomain, the HTTPS proxy binding it to the
// URL map, a reserved global IPv4 address, and the TCP 443 forwarding rule.
//
// See:
// https://cloud.google.com/load-balancing/docs/https/setting-up-https-serverless
func (d *CustomDomain) deployFrontend(ctx *pulumi.Context, zone *dnsZone, urlMap *compute.URLMap, args *CustomDomainArgs) (*compute.GlobalAddress, error) {
	certName := d.newResourceName("ssl-cert", 63)

	// Certificate replacement must stay create-before-delete (the default
	// replacement order). Opting into DeleteBeforeReplace here would detach
	// the proxy's serving certificate during rotation.
	certificate, err := compute.NewManagedSslCertificate(ctx, certName, &compute.ManagedSslCertificateArgs{
		Name:        pulumi.String(certName),
		Description: pulumi.String(fmt.Sprintf("Managed TLS cert for %s", certificateDomain(args.Subdomain, args.DNSName))),
		Project:     pulumi.String(d.Project),
		Managed: &compute.ManagedSslCertificateManagedArgs{
			Domains: d.certificateDomains(ctx, zone, args),
		},
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to create managed certificate: %w", err)
	}
	d.certificate = certificate
	ctx.Export("certificate_name", certificate.Name)
	ctx.Export("certificate_domain", pulumi.String(certificateDomain(args.Subdomain, args.DNSName)))

	proxyName := d.newResourceName("target-proxy", 63)
	httpsProxy, err := compute.NewTargetHttpsProxy(ctx, proxyName, &compute.TargetHttpsProxyArgs{
		Name:        pulumi.String(proxyName),
		Description: pulumi.String("Proxy to LB traffic for the API Gateway custom domain"),
		Project:     pulumi.String(d.Project),
		UrlMap:      urlMap.SelfLink,
		SslCertificates: pulumi.StringArray{
			certificate.SelfLink,
		},
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTPS proxy: %w", err)
	}
	d.httpsProxy = httpsProxy
	ctx.Export("target_proxy_name", httpsProxy.Name)

	addressName := d.newResourceName("fwd-rule-address", 63)
	address, err := compute.NewGlobalAddress(ctx, addressName, &compute.GlobalAddressArgs{
		Name:        pulumi.String(addressName),
		Description: pulumi.String("Public IPv4 the custom domain resolves to"),
		Project:     pulumi.String(d.Project),
		AddressType: pulumi.String("EXTERNAL"),
		IpVersion:   pulumi.String("IPV4"),
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to reserve global address: %w", err)
	}
	d.globalAddress = address
	ctx.Export("load_balancer_address_name", address.Name)
	ctx.Export("load_balancer_ip_address", address.Address)

	ruleName := d.newResourceName("fwd-rule", 63)
	forwardingRule, err := compute.NewGlobalForwardingRule(ctx, ruleName, &compute.GlobalForwardingRuleArgs{
		Name:                pulumi.String(ruleName),
		Description:         pulumi.String("HTTPS forwarding rule to LB traffic for the API Gateway"),
		Project:             pulumi.String(d.Project),
		PortRange:           pulumi.String("443"),
		LoadBalancingScheme: pulumi.String("EXTERNAL"),
		IpAddress:           address.Address,
		Target:              httpsProxy.SelfLink,
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarding rule: %w", err)
	}
	d.forwardingRule = forwardingRule
	ctx.Export("forwarding_rule_name", forwardingRule.Name)

	return address, nil
}

// certificateDomains threads the certificate's domain list through the zone
// delegation check. The check runs when the zone's name servers resolve,
// which is at apply time and never during preview, so the certificate is not
// requested for a domain the world cannot see yet. The certificate otherwise
// sits in PROVISIONING until the registrar delegation lands.
func (d *CustomDomain) certificateDomains(ctx *pulumi.Context, zone *dnsZone, args *CustomDomainArgs) pulumi.StringArrayInput {
	domain := certificateDomain(args.Subdomain, args.DNSName)

	if args.SkipDelegationCheck {
		return pulumi.StringArray{pulumi.String(domain)}
	}

	checker := args.DelegationChecker
	if checker == nil {
		checker = preflight.NewChecker()
	}

	return pulumi.All(zone.dnsName, zone.nameServers).ApplyT(func(resolved []interface{}) ([]string, error) {
		dnsName := resolved[0].(string)
		nameServers := resolved[1].([]string)

		err := checker.CheckZoneDelegation(context.Background(), dnsName, nameServers)
		if err != nil {
			if args.RequireDelegatedZone {
				return nil, fmt.Errorf("refusing to request certificate for %s: %w", domain, err)
			}

			warning := fmt.Sprintf("Requesting certificate for %s although %v; it will stay in PROVISIONING until the zone is delegated", domain, err)
			if logErr := ctx.Log.Warn(warning, nil); logErr != nil {
				log.Printf("failed to log delegation warning with Pulumi context: %v", logErr)
			}
		}

		return []string{domain}, nil
	}).(pulumi.StringArrayOutput)
}
