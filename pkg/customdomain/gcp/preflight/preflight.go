// Package preflight verifies the DNS pre-conditions a managed certificate
// needs before it can leave PROVISIONING: the managed zone must actually be
// delegated to its assigned name servers, and the record must resolve to the
// reserved address. The provider only reports these failures after the fact
// (a certificate stuck in PROVISIONING, a 502 at the load balancer), so the
// checks run up front where an operator can act on them.
package preflight

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 15 * time.Second

// Resolver is the lookup surface the checks need. *net.Resolver satisfies it.
type Resolver interface {
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Check is a single runnable pre-condition.
type Check func(ctx context.Context) error

// Checker runs DNS pre-condition checks. The zero value uses
// net.DefaultResolver and DefaultTimeout.
type Checker struct {
	// Resolver used for lookups. Defaults to net.DefaultResolver.
	Resolver Resolver
	// Timeout per individual check. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// NewChecker returns a Checker on the system resolver.
func NewChecker() *Checker {
	return &Checker{}
}

// CheckZoneDelegation verifies that the zone apex of dnsName is served by at
// least one of the name servers assigned to the managed zone. Returns
// NotDelegatedError when the apex has no NS records at all, and
// DelegationMismatchError when the live NS set does not overlap the zone's.
//
// TODO: also check CAA records permit pki.goog before the certificate is
// requested; net.Resolver has no CAA lookup.
func (c *Checker) CheckZoneDelegation(ctx context.Context, dnsName string, zoneNameServers []string) error {
	apex := strings.TrimSuffix(strings.ToLower(dnsName), ".")

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	records, err := c.resolver().LookupNS(ctx, apex)
	if err != nil {
		return NotDelegatedError{Zone: dnsName, Err: err}
	}
	if len(records) == 0 {
		return NotDelegatedError{Zone: dnsName}
	}

	want := make(map[string]struct{}, len(zoneNameServers))
	wantHosts := make([]string, 0, len(zoneNameServers))
	for _, ns := range zoneNameServers {
		host := normalizeHost(ns)
		want[host] = struct{}{}
		wantHosts = append(wantHosts, host)
	}

	gotHosts := make([]string, 0, len(records))
	for _, record := range records {
		host := normalizeHost(record.Host)
		if _, ok := want[host]; ok {
			return nil
		}
		gotHosts = append(gotHosts, host)
	}
	sort.Strings(wantHosts)
	sort.Strings(gotHosts)

	return DelegationMismatchError{Zone: dnsName, Want: wantHosts, Got: gotHosts}
}

// CheckRecordTarget verifies that recordName resolves to address. Useful as a
// post-apply convergence probe before flipping traffic to the new domain.
func (c *Checker) CheckRecordTarget(ctx context.Context, recordName, address string) error {
	host := strings.TrimSuffix(strings.ToLower(recordName), ".")

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	addrs, err := c.resolver().LookupHost(ctx, host)
	if err != nil {
		return RecordMismatchError{Name: recordName, Want: address, Err: err}
	}
	for _, addr := range addrs {
		if addr == address {
			return nil
		}
	}
	sort.Strings(addrs)

	return RecordMismatchError{Name: recordName, Want: address, Got: addrs}
}

// Run executes the given checks concurrently and returns the first failure.
func (c *Checker) Run(ctx context.Context, checks ...Check) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		group.Go(func() error {
			return check(ctx)
		})
	}
	return group.Wait()
}

func (c *Checker) resolver() Resolver {
	if c.Resolver != nil {
		return c.Resolver
	}
	return net.DefaultResolver
}

func (c *Checker) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// normalizeHost lowercases a name-server host and strips the trailing dot so
// values from live lookups and from the cloud API compare equal.
func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
