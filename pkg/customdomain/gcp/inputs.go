// Package gcp publishes a Google API Gateway behind a readable custom domain:
// a Cloud DNS zone and A record, a global external HTTPS load balancer fed by
// an internet NEG, and a Google-managed TLS certificate for the subdomain.
package gcp

import (
	"fmt"

	"github.com/adispen/gcp-apigateway-custom-domain/pkg/customdomain/gcp/preflight"
)

// CustomDomainArgs contains configuration arguments for creating a CustomDomain instance.
type CustomDomainArgs struct {
	// Project is the GCP project to deploy into. Required.
	Project string
	// Region where the gateway runs. Required unless Gateway.ExistingHostname is set.
	Region string

	// ZoneName is the Cloud DNS managed zone name. E.g.: "example-zone". Required.
	ZoneName string
	// DNSName is the zone's DNS suffix. E.g.: "my-domain.com." (the trailing
	// dot is added if missing). Required.
	DNSName string
	// Subdomain label(s) prepended to DNSName to form the public hostname.
	// Defaults to "api".
	Subdomain string
	// UseExistingZone looks up ZoneName in the project instead of creating it.
	UseExistingZone bool
	// RecordTTLSeconds is the TTL of the A record. Defaults to 300.
	RecordTTLSeconds int

	// Gateway configures the API Gateway that backs the domain.
	Gateway *GatewayArgs

	// DisableCDN turns off Cloud CDN on the backend service. CDN is on by default.
	DisableCDN bool

	// RequireDelegatedZone fails the deployment when the zone apex is not
	// delegated to the managed zone's name servers. The default is to warn
	// and proceed, leaving the certificate in PROVISIONING until the
	// delegation lands.
	RequireDelegatedZone bool
	// SkipDelegationCheck disables the live NS lookup entirely.
	SkipDelegationCheck bool
	// DelegationChecker overrides the resolver used for the delegation check.
	// Defaults to the system resolver.
	DelegationChecker *preflight.Checker

	Labels map[string]string
}

// GatewayArgs contains configuration for the Google API Gateway behind the domain.
type GatewayArgs struct {
	// APIID for the API resource. Defaults to "api".
	APIID string
	// GatewayID for the gateway resource. Defaults to "api-gateway".
	GatewayID string
	// OpenAPISpecPath is a local OpenAPI 3 document to install as the API
	// config. When empty, a catch-all proxy document against BackendAddress
	// is generated.
	OpenAPISpecPath string
	// BackendAddress is the upstream URL the API config routes to. Required
	// when OpenAPISpecPath is empty. When both are set, the document's
	// x-google-backend addresses are rewritten to BackendAddress.
	BackendAddress string
	// ExistingHostname points the load balancer at an already-running
	// gateway's default hostname instead of creating gateway resources.
	// E.g.: "my-gateway-1a2b3c4d.uc.gateway.dev".
	ExistingHostname string
}

// applyCustomDomainDefaults validates required arguments and fills in the
// defaults. The defaults reproduce the canonical single-gateway layout: API
// id "api", gateway id "api-gateway", subdomain "api", a 300s A record.
func applyCustomDomainDefaults(args *CustomDomainArgs) error {
	if args.Project == "" {
		return fmt.Errorf("Project is required")
	}
	if args.ZoneName == "" {
		return fmt.Errorf("ZoneName is required")
	}
	if args.DNSName == "" {
		return fmt.Errorf("DNSName is required")
	}

	args.DNSName = normalizeDNSName(args.DNSName)
	if err := validateDNSName(args.DNSName); err != nil {
		return err
	}

	if args.Subdomain == "" {
		args.Subdomain = "api"
	}
	if err := validateSubdomain(args.Subdomain); err != nil {
		return err
	}

	if args.RecordTTLSeconds < 0 {
		return fmt.Errorf("RecordTTLSeconds must not be negative, got %d", args.RecordTTLSeconds)
	}
	if args.RecordTTLSeconds == 0 {
		args.RecordTTLSeconds = 300
	}

	if args.Gateway == nil {
		args.Gateway = &GatewayArgs{}
	}
	if err := applyGatewayDefaults(args.Gateway); err != nil {
		return err
	}

	if args.Gateway.ExistingHostname == "" && args.Region == "" {
		return fmt.Errorf("Region is required to create a gateway")
	}

	// The certificate can only validate domains the zone answers for.
	domain := certificateDomain(args.Subdomain, args.DNSName)
	if !domainUnderZone(domain, args.DNSName) {
		return fmt.Errorf("domain %q is not under zone %q", domain, args.DNSName)
	}

	return nil
}

// applyGatewayDefaults fills in gateway identifiers and checks that the API
// config has an upstream to route to.
func applyGatewayDefaults(args *GatewayArgs) error {
	if args.ExistingHostname != "" {
		// The gateway already exists; nothing to declare, nothing to default.
		return nil
	}

	if args.APIID == "" {
		args.APIID = "api"
	}
	if args.GatewayID == "" {
		args.GatewayID = "api-gateway"
	}

	if args.OpenAPISpecPath == "" && args.BackendAddress == "" {
		return fmt.Errorf("Gateway.BackendAddress is required to generate a proxy document when no OpenAPI document is given")
	}

	return nil
}
