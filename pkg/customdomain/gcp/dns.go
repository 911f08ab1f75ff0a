package gcp

import (
	"fmt"
	"log"
	"strings"

	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/dns"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// dnsZone carries the zone attributes downstream resources reference,
// whether the zone was created here or looked up in the project.
type dnsZone struct {
	name        pulumi.StringOutput
	dnsName     pulumi.StringOutput
	nameServers pulumi.StringArrayOutput
}

// deployDNSZone creates the public managed zone for the domain suffix, or
// resolves an existing one when UseExistingZone is set. A looked-up zone must
// serve exactly the configured DNSName so the record and certificate land in
// the zone the operator intended.
func (d *CustomDomain) deployDNSZone(ctx *pulumi.Context, args *CustomDomainArgs, networkAPIs []pulumi.Resource) (*dnsZone, error) {
	if args.UseExistingZone {
		existing, err := dns.LookupManagedZone(ctx, &dns.LookupManagedZoneArgs{
			Name:    args.ZoneName,
			Project: &args.Project,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to look up managed zone %q: %w", args.ZoneName, err)
		}
		if normalizeDNSName(existing.DnsName) != args.DNSName {
			return nil, fmt.Errorf("managed zone %q serves %q, expected %q", args.ZoneName, existing.DnsName, args.DNSName)
		}

		if err := ctx.Log.Info(fmt.Sprintf("Using existing managed zone %q (%s)", existing.Name, existing.DnsName), nil); err != nil {
			log.Printf("failed to log managed zone lookup with Pulumi context: %v", err)
		}

		return &dnsZone{
			name:        toStringOutput(existing.Name),
			dnsName:     toStringOutput(normalizeDNSName(existing.DnsName)),
			nameServers: pulumi.ToStringArray(existing.NameServers).ToStringArrayOutput(),
		}, nil
	}

	zone, err := dns.NewManagedZone(ctx, args.ZoneName, &dns.ManagedZoneArgs{
		Name:        pulumi.String(args.ZoneName),
		DnsName:     pulumi.String(args.DNSName),
		Description: pulumi.String(fmt.Sprintf("Public zone for %s", strings.TrimSuffix(args.DNSName, "."))),
		Project:     pulumi.String(d.Project),
		Labels:      mergeLabels(d.Labels, pulumi.StringMap{"dns": pulumi.String("true")}),
	}, pulumi.Parent(d), pulumi.DependsOn(networkAPIs))
	if err != nil {
		return nil, fmt.Errorf("failed to create managed zone %q: %w", args.ZoneName, err)
	}
	d.managedZone = zone

	ctx.Export("dns_zone_name", zone.Name)
	ctx.Export("dns_zone_name_servers", zone.NameServers)

	return &dnsZone{
		name:        zone.Name,
		dnsName:     zone.DnsName,
		nameServers: zone.NameServers,
	}, nil
}

// deployDNSRecord points the public hostname at the load balancer's reserved
// address with an A record in the managed zone.
func (d *CustomDomain) deployDNSRecord(ctx *pulumi.Context, zone *dnsZone, address *compute.GlobalAddress, args *CustomDomainArgs) (*dns.RecordSet, error) {
	recordName := absoluteRecordName(args.Subdomain, args.DNSName)

	record, err := dns.NewRecordSet(ctx, d.newResourceName("a-record", 63), &dns.RecordSetArgs{
		ManagedZone: zone.name,
		Name:        pulumi.String(recordName),
		Type:        pulumi.String("A"),
		Ttl:         pulumi.Int(args.RecordTTLSeconds),
		Rrdatas:     pulumi.StringArray{address.Address},
		Project:     pulumi.String(d.Project),
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to create record %q: %w", recordName, err)
	}

	ctx.Export("domain_record_name", record.Name)

	return record, nil
}

// normalizeDNSName lowercases a DNS name and ensures the trailing dot Cloud
// DNS expects on zone and record names.
func normalizeDNSName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && !strings.HasSuffix(name, ".") {
		name += "."
	}

	return name
}

// validateDNSName enforces RFC 1035 shape on an absolute DNS name: a trailing
// dot, at least two labels, and at most 253 characters.
func validateDNSName(name string) error {
	if !strings.HasSuffix(name, ".") {
		return fmt.Errorf("dns name %q must end with a dot", name)
	}

	trimmed := strings.TrimSuffix(name, ".")
	if len(trimmed) > 253 {
		return fmt.Errorf("dns name %q exceeds 253 characters", name)
	}

	labels := strings.Split(trimmed, ".")
	if len(labels) < 2 {
		return fmt.Errorf("dns name %q must have at least two labels", name)
	}
	for _, label := range labels {
		if err := validateDNSLabel(label); err != nil {
			return fmt.Errorf("dns name %q: %w", name, err)
		}
	}

	return nil
}

// validateSubdomain enforces label rules on the relative name prepended to
// the zone suffix.
func validateSubdomain(subdomain string) error {
	if strings.HasSuffix(subdomain, ".") {
		return fmt.Errorf("subdomain %q must be relative, without a trailing dot", subdomain)
	}
	for _, label := range strings.Split(subdomain, ".") {
		if err := validateDNSLabel(label); err != nil {
			return fmt.Errorf("subdomain %q: %w", subdomain, err)
		}
	}

	return nil
}

func validateDNSLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if len(label) > 63 {
		return fmt.Errorf("label %q exceeds 63 characters", label)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("label %q must not start or end with a dash", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return fmt.Errorf("label %q contains invalid character %q", label, c)
		}
	}

	return nil
}

// absoluteRecordName joins the subdomain and the zone suffix into the FQDN
// the record set is named by. E.g.: ("api", "my-domain.com.") -> "api.my-domain.com.".
func absoluteRecordName(subdomain, dnsName string) string {
	return subdomain + "." + dnsName
}

// certificateDomain is the record FQDN without the trailing dot, the form
// managed certificates expect. E.g.: "api.my-domain.com".
func certificateDomain(subdomain, dnsName string) string {
	return strings.TrimSuffix(absoluteRecordName(subdomain, dnsName), ".")
}

// domainUnderZone reports whether domain falls under the zone's DNS suffix.
func domainUnderZone(domain, zoneDNSName string) bool {
	abs := normalizeDNSName(domain)
	zone := normalizeDNSName(zoneDNSName)

	return abs == zone || strings.HasSuffix(abs, "."+zone)
}
