// Package config provides an environment config helper
package config

import (
	"fmt"
	"log"

	"github.com/kelseyhightower/envconfig"
)

// Config allows setting the custom domain deployment via environment variables
type Config struct {
	GCPProject string `envconfig:"GCP_PROJECT" required:"true"`
	GCPRegion  string `envconfig:"GCP_REGION" required:"true"`

	// Cloud DNS zone name and the domain suffix it serves
	ZoneName string `envconfig:"ZONE_NAME" required:"true"`
	DNSName  string `envconfig:"DNS_NAME" required:"true"`

	Subdomain        string `envconfig:"SUBDOMAIN" default:"api"`
	GatewayName      string `envconfig:"GATEWAY_NAME" default:"apigw"`
	RecordTTLSeconds int    `envconfig:"RECORD_TTL_SECONDS" default:"300"`

	OpenAPISpecPath         string `envconfig:"OPENAPI_SPEC_PATH" default:""`
	BackendAddress          string `envconfig:"BACKEND_ADDRESS" default:""`
	ExistingGatewayHostname string `envconfig:"EXISTING_GATEWAY_HOSTNAME" default:""`

	UseExistingZone      bool `envconfig:"USE_EXISTING_ZONE" default:"false"`
	EnableCDN            bool `envconfig:"ENABLE_CDN" default:"true"`
	RequireDelegatedZone bool `envconfig:"REQUIRE_DELEGATED_ZONE" default:"false"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config

	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment variables: %w", err)
	}

	log.Printf("Configuration loaded successfully:")
	log.Printf("  GCP Project: %s", config.GCPProject)
	log.Printf("  GCP Region: %s", config.GCPRegion)
	log.Printf("  Zone Name: %s", config.ZoneName)
	log.Printf("  DNS Name: %s", config.DNSName)
	log.Printf("  Subdomain: %s", config.Subdomain)
	log.Printf("  Gateway Name: %s", config.GatewayName)
	log.Printf("  Record TTL Seconds: %d", config.RecordTTLSeconds)
	log.Printf("  OpenAPI Spec Path: %s", config.OpenAPISpecPath)
	log.Printf("  Backend Address: %s", config.BackendAddress)
	log.Printf("  Existing Gateway Hostname: %s", config.ExistingGatewayHostname)
	log.Printf("  Use Existing Zone: %t", config.UseExistingZone)
	log.Printf("  Enable CDN: %t", config.EnableCDN)
	log.Printf("  Require Delegated Zone: %t", config.RequireDelegatedZone)

	return &config, nil
}
