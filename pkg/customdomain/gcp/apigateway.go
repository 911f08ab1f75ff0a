package gcp

import (
	"fmt"
	"log"

	apigateway "github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/apigateway"
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// deployAPIGateway sets up the Google API Gateway the custom domain fronts:
//
// - Dedicated service account the gateway calls its upstream with
// - API definition with the OpenAPI document embedded in base64
// - API config replaced in place whenever the document changes
// - Regional gateway exposing the auto-generated *.gateway.dev hostname
//
// When ExistingHostname is set no gateway resources are declared and the
// hostname is returned as-is for the load balancer to target.
//
// See:
// https://cloud.google.com/api-gateway/docs/gateway-serverless-neg
// https://cloud.google.com/api-gateway/docs/gateway-load-balancing
func (d *CustomDomain) deployAPIGateway(ctx *pulumi.Context, args *CustomDomainArgs) (pulumi.StringOutput, error) {
	gateway := args.Gateway

	if gateway.ExistingHostname != "" {
		if err := ctx.Log.Info(fmt.Sprintf("Routing to existing gateway hostname %q", gateway.ExistingHostname), nil); err != nil {
			log.Printf("failed to log gateway hostname with Pulumi context: %v", err)
		}

		return toStringOutput(gateway.ExistingHostname), nil
	}

	gatewayAPIs, err := d.enableServiceAPIs(ctx, gatewayServiceAPIs)
	if err != nil {
		return pulumi.StringOutput{}, err
	}

	serviceAccount, err := d.createGatewayServiceAccount(ctx, gateway)
	if err != nil {
		return pulumi.StringOutput{}, err
	}

	gatewayLabels := mergeLabels(d.Labels, pulumi.StringMap{
		"gateway": pulumi.String("true"),
	})

	api, err := apigateway.NewApi(ctx, gateway.APIID, &apigateway.ApiArgs{
		ApiId:       pulumi.String(gateway.APIID),
		DisplayName: pulumi.String(fmt.Sprintf("Gateway API (apiID: %s)", gateway.APIID)),
		Project:     pulumi.String(d.Project),
		Labels:      gatewayLabels,
	}, pulumi.Parent(d), pulumi.DependsOn(gatewayAPIs))
	if err != nil {
		return pulumi.StringOutput{}, fmt.Errorf("failed to create API: %w", err)
	}
	d.api = api
	ctx.Export("api_gateway_api_id", api.ApiId)
	ctx.Export("api_gateway_api_name", api.Name)

	apiConfig, err := d.createAPIConfig(ctx, gateway, api, serviceAccount.Email, gatewayLabels)
	if err != nil {
		return pulumi.StringOutput{}, err
	}
	ctx.Export("api_gateway_config_id", apiConfig.ApiConfigId)
	ctx.Export("api_gateway_config_name", apiConfig.Name)

	gw, err := apigateway.NewGateway(ctx, gateway.GatewayID, &apigateway.GatewayArgs{
		GatewayId:   pulumi.String(gateway.GatewayID),
		DisplayName: pulumi.String(fmt.Sprintf("Gateway (gatewayID: %s)", gateway.GatewayID)),
		Region:      pulumi.String(d.Region),
		Project:     pulumi.String(d.Project),
		ApiConfig:   apiConfig.ID(),
		Labels:      gatewayLabels,
	}, pulumi.Parent(d))
	if err != nil {
		return pulumi.StringOutput{}, fmt.Errorf("failed to create gateway: %w", err)
	}
	d.gateway = gw
	ctx.Export("api_gateway_gateway_id", gw.GatewayId)
	ctx.Export("api_gateway_gateway_name", gw.Name)
	ctx.Export("api_gateway_default_hostname", gw.DefaultHostname)

	return gw.DefaultHostname, nil
}

// createGatewayServiceAccount creates the dedicated identity API Gateway uses
// to call the upstream service behind the API config.
func (d *CustomDomain) createGatewayServiceAccount(ctx *pulumi.Context, args *GatewayArgs) (*serviceaccount.Account, error) {
	// Account ids are capped at 28 characters
	accountName := d.newResourceName("gateway-account", 28)

	serviceAccount, err := serviceaccount.NewAccount(ctx, accountName, &serviceaccount.AccountArgs{
		AccountId:   pulumi.String(accountName),
		DisplayName: pulumi.String(fmt.Sprintf("API Gateway service account (%s)", args.GatewayID)),
		Project:     pulumi.String(d.Project),
	}, pulumi.Parent(d))
	if err != nil {
		return nil, fmt.Errorf("failed to create API Gateway service account: %w", err)
	}
	d.gatewayServiceAccount = serviceAccount

	ctx.Export("api_gateway_service_account_email", serviceAccount.Email)

	return serviceAccount, nil
}

// createAPIConfig installs the OpenAPI document and binds the gateway service
// account. The config id is a prefix rather than a fixed id: together with
// ReplaceOnChanges, document updates roll out as a new config before the old
// one is removed, which the gateway requires to swap configs without downtime.
func (d *CustomDomain) createAPIConfig(ctx *pulumi.Context,
	args *GatewayArgs,
	api *apigateway.Api,
	gatewayServiceAccountEmail pulumi.StringOutput,
	gatewayLabels pulumi.StringMap) (*apigateway.ApiConfig, error) {

	document, err := renderAPIConfigDocument(args.OpenAPISpecPath, args.BackendAddress)
	if err != nil {
		return nil, err
	}

	documentPath := args.OpenAPISpecPath
	if documentPath == "" {
		documentPath = "openapi.json"
	}

	configName := fmt.Sprintf("%s-config", args.APIID)

	apiConfig, err := apigateway.NewApiConfig(ctx, configName, &apigateway.ApiConfigArgs{
		Api:               api.ApiId,
		ApiConfigIdPrefix: pulumi.String(fmt.Sprintf("%s-", configName)),
		DisplayName:       pulumi.String(fmt.Sprintf("Config for %s", args.APIID)),
		Project:           pulumi.String(d.Project),
		OpenapiDocuments: apigateway.ApiConfigOpenapiDocumentArray{
			&apigateway.ApiConfigOpenapiDocumentArgs{
				Document: &apigateway.ApiConfigOpenapiDocumentDocumentArgs{
					Path:     pulumi.String(documentPath),
					Contents: pulumi.String(document),
				},
			},
		},
		GatewayConfig: &apigateway.ApiConfigGatewayConfigArgs{
			BackendConfig: &apigateway.ApiConfigGatewayConfigBackendConfigArgs{
				GoogleServiceAccount: gatewayServiceAccountEmail,
			},
		},
		Labels: gatewayLabels,
	}, pulumi.Parent(d), pulumi.ReplaceOnChanges([]string{"*"}))
	if err != nil {
		return nil, fmt.Errorf("failed to create API config: %w", err)
	}
	d.apiConfig = apiConfig

	return apiConfig, nil
}
