package gcp

import (
	"encoding/base64"
	"fmt"

	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
)

// Path translation constants
const (
	AppendPathToAddress = "APPEND_PATH_TO_ADDRESS"
	ConstantAddress     = "CONSTANT_ADDRESS"
)

// renderAPIConfigDocument produces the base64 Swagger 2.0 document installed
// in the API config. A document file wins over the generated one; when both a
// document and a backend address are given, the document's x-google-backend
// addresses are rewritten to the address.
//
// Google API Gateway only accepts Swagger 2.0, so OpenAPI 3 input is
// converted on the way in. See:
// https://cloud.google.com/api-gateway/docs/openapi-overview
func renderAPIConfigDocument(specPath, backendAddress string) (string, error) {
	var doc *openapi3.T
	if specPath != "" {
		loaded, err := loadOpenAPIDocument(specPath)
		if err != nil {
			return "", err
		}
		if backendAddress != "" {
			overrideBackendAddress(loaded, backendAddress)
		}
		doc = loaded
	} else {
		doc = newProxyAPISpec(backendAddress)
	}

	v2Doc, err := openapi2conv.FromV3(doc)
	if err != nil {
		return "", fmt.Errorf("failed to convert OpenAPI document to v2: %w", err)
	}

	contents, err := v2Doc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}

	return base64.StdEncoding.EncodeToString(contents), nil
}

// loadOpenAPIDocument reads and validates an OpenAPI 3 document from disk.
func loadOpenAPIDocument(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document %q: %w", path, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document %q: %w", path, err)
	}

	return doc, nil
}

// overrideBackendAddress rewrites the x-google-backend address of every
// operation so a document template can serve arbitrary upstream URLs.
func overrideBackendAddress(doc *openapi3.T, address string) {
	if doc.Paths == nil {
		return
	}
	for _, pathItem := range doc.Paths.Map() {
		for _, operation := range pathItem.Operations() {
			if operation.Extensions == nil {
				operation.Extensions = make(map[string]interface{})
			}
			backend, ok := operation.Extensions["x-google-backend"].(map[string]interface{})
			if !ok {
				backend = map[string]interface{}{
					"pathTranslation": AppendPathToAddress,
					"protocol":        "h2",
				}
			}
			backend["address"] = address
			operation.Extensions["x-google-backend"] = backend
		}
	}
}

// newProxyAPISpec creates an OpenAPI 3.0.1 specification that forwards every
// request to the backend address: a single catch-all path with the standard
// HTTP methods, each routed via x-google-backend over h2.
func newProxyAPISpec(backendAddress string) *openapi3.T {
	paths := &openapi3.Paths{}
	paths.Set("/{proxy}", &openapi3.PathItem{
		Get:     newProxyOperation("proxyGet", "get", backendAddress),
		Post:    newProxyOperation("proxyPost", "post", backendAddress),
		Put:     newProxyOperation("proxyPut", "put", backendAddress),
		Delete:  newProxyOperation("proxyDelete", "delete", backendAddress),
		Options: newProxyOperation("proxyOptions", "options", backendAddress),
	})

	return &openapi3.T{
		OpenAPI: "3.0.1",
		Info: &openapi3.Info{
			Title:       "API Gateway custom domain",
			Description: "Catch-all proxy to the gateway's upstream service",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			&openapi3.Server{
				URL: "https://{gateway_host}",
			},
		},
		Paths: paths,
	}
}

// newProxyOperation creates a pass-through operation that appends the request
// path to the backend address.
func newProxyOperation(operationID, method, backendAddress string) *openapi3.Operation {
	operation := &openapi3.Operation{
		OperationID: operationID,
		Parameters: []*openapi3.ParameterRef{
			{
				Value: &openapi3.Parameter{
					Name:     "proxy",
					In:       "path",
					Required: true,
					Schema:   &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				},
			},
		},
		Responses: openapi3.NewResponses(),
		Extensions: map[string]interface{}{
			"x-google-backend": map[string]interface{}{
				"address":         backendAddress,
				"pathTranslation": AppendPathToAddress,
				"protocol":        "h2",
			},
		},
	}

	if method == "post" || method == "put" {
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: false,
				Content:  openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema()),
			},
		}
	}

	// Descriptions are required for v2 compatibility
	operation.Responses.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: stringPtr("Successful response"),
		Content:     openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema()),
	}})
	operation.Responses.Set("default", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: stringPtr("Default response"),
	}})

	return operation
}

// stringPtr returns a pointer to the given string
func stringPtr(s string) *string {
	return &s
}
