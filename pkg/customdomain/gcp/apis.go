package gcp

import (
	"fmt"
	"strings"

	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Google APIs the declared resources depend on, split by concern. The
// gateway set is skipped when routing to a pre-existing gateway.
var (
	gatewayServiceAPIs = []string{
		"apigateway.googleapis.com",
		"servicemanagement.googleapis.com",
		"servicecontrol.googleapis.com",
	}
	networkServiceAPIs = []string{
		"compute.googleapis.com",
		"dns.googleapis.com",
	}
)

// enableServiceAPIs enables the given Google APIs on the project. The
// services are retained on delete so tearing down the stack does not disable
// APIs other workloads in the project may rely on.
func (d *CustomDomain) enableServiceAPIs(ctx *pulumi.Context, services []string) ([]pulumi.Resource, error) {
	enabled := make([]pulumi.Resource, 0, len(services))
	for _, service := range services {
		name := d.newResourceName(strings.TrimSuffix(service, ".googleapis.com")+"-api", 63)

		svc, err := projects.NewService(ctx, name, &projects.ServiceArgs{
			Project:                  pulumi.String(d.Project),
			Service:                  pulumi.String(service),
			DisableOnDestroy:         pulumi.Bool(false),
			DisableDependentServices: pulumi.Bool(false),
		},
			pulumi.Parent(d),
			pulumi.RetainOnDelete(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to enable %s: %w", service, err)
		}

		enabled = append(enabled, svc)
	}

	return enabled, nil
}
