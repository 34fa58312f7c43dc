// Package docs embeds the OpenAPI document and serves it through Swagger UI.
package docs

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
)

//go:embed openapi.yml
var OpenAPI []byte

// Load parses and validates the embedded document.
func Load() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// Handler serves Swagger UI under /docs/api/v1.
func Handler() fiber.Handler {
	return swagger.New(swagger.Config{
		BasePath:    "/docs/api/",
		FilePath:    "openapi.yml",
		FileContent: OpenAPI,
		Path:        "v1",
		Title:       "FoxAuth API",
	})
}
