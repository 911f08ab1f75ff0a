// Package main provides the entry point for the API Gateway custom domain Pulumi program.
package main

import (
	"log"

	"github.com/adispen/gcp-apigateway-custom-domain/pkg/customdomain/gcp"
	"github.com/adispen/gcp-apigateway-custom-domain/pkg/customdomain/gcp/config"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// Load config helper
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		// Create CustomDomain instance
		domain, err := gcp.NewCustomDomain(ctx, cfg.GatewayName, &gcp.CustomDomainArgs{
			Project:          cfg.GCPProject,
			Region:           cfg.GCPRegion,
			ZoneName:         cfg.ZoneName,
			DNSName:          cfg.DNSName,
			Subdomain:        cfg.Subdomain,
			UseExistingZone:  cfg.UseExistingZone,
			RecordTTLSeconds: cfg.RecordTTLSeconds,
			Gateway: &gcp.GatewayArgs{
				OpenAPISpecPath:  cfg.OpenAPISpecPath,
				BackendAddress:   cfg.BackendAddress,
				ExistingHostname: cfg.ExistingGatewayHostname,
			},
			DisableCDN:           !cfg.EnableCDN,
			RequireDelegatedZone: cfg.RequireDelegatedZone,
			Labels: map[string]string{
				"environment": "production",
				"managed-by":  "pulumi",
			},
		})
		if err != nil {
			return err
		}

		// Export important outputs
		ctx.Export("domainUrl", pulumi.String(domain.DomainURL()))
		ctx.Export("gatewayHostname", domain.GatewayHostname())
		ctx.Export("ipAddress", domain.GetGlobalAddress().Address)

		log.Println("Custom domain deployment loaded and ready!")

		return nil
	})
}
