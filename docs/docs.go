// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check endpoint",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness check endpoint",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Service is ready", "schema": {"$ref": "#/definitions/http.ReadyResponse"}},
                    "503": {"description": "Service is not ready", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/{shortCode}": {
            "get": {
                "tags": ["redirect"],
                "summary": "Redirect to original URL",
                "parameters": [{"type": "string", "name": "shortCode", "in": "path", "required": true}],
                "responses": {
                    "307": {"description": "Redirect to original URL"},
                    "404": {"description": "Short URL not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "410": {"description": "Short URL inactive or expired", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/urls": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["urls"],
                "summary": "List short URLs",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "default": 0, "name": "skip", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/application.URLResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["urls"],
                "summary": "Create a short URL",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/application.CreateURLRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/application.URLResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/http.ValidationErrorResponse"}},
                    "409": {"description": "Short code already exists", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/urls/{shortCode}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["urls"],
                "summary": "Get a short URL",
                "parameters": [{"type": "string", "name": "shortCode", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/application.URLResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["urls"],
                "summary": "Update a short URL",
                "parameters": [
                    {"type": "string", "name": "shortCode", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/application.UpdateURLRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/application.URLResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["urls"],
                "summary": "Delete a short URL",
                "parameters": [{"type": "string", "name": "shortCode", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/analytics/{shortCode}/clicks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["analytics"],
                "summary": "List click events",
                "parameters": [
                    {"type": "string", "name": "shortCode", "in": "path", "required": true},
                    {"type": "integer", "default": 0, "name": "skip", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ClickEvent"}}}}
            }
        },
        "/api/v1/analytics/{shortCode}/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["analytics"],
                "summary": "Click summary",
                "parameters": [
                    {"type": "string", "name": "shortCode", "in": "path", "required": true},
                    {"type": "integer", "default": 30, "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/application.ClickSummary"}}}
            }
        },
        "/api/v1/analytics/top": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["analytics"],
                "summary": "Top short URLs",
                "parameters": [{"type": "integer", "default": 10, "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/application.TopURL"}}}}
            }
        }
    },
    "definitions": {
        "application.CreateURLRequest": {
            "type": "object",
            "required": ["url"],
            "properties": {
                "url": {"type": "string"},
                "customShortCode": {"type": "string", "minLength": 4, "maxLength": 10},
                "title": {"type": "string", "maxLength": 255},
                "expiresAt": {"type": "string", "format": "date-time"}
            }
        },
        "application.UpdateURLRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 255},
                "isActive": {"type": "boolean"}
            }
        },
        "application.URLResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "shortCode": {"type": "string"},
                "shortUrl": {"type": "string"},
                "originalUrl": {"type": "string"},
                "title": {"type": "string"},
                "isActive": {"type": "boolean"},
                "expiresAt": {"type": "string", "format": "date-time"},
                "clickCount": {"type": "integer"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "application.ClickSummary": {
            "type": "object",
            "properties": {
                "shortCode": {"type": "string"},
                "days": {"type": "integer"},
                "since": {"type": "string", "format": "date-time"},
                "totalClicks": {"type": "integer"},
                "uniqueIps": {"type": "integer"}
            }
        },
        "application.TopURL": {
            "type": "object",
            "properties": {
                "shortCode": {"type": "string"},
                "originalUrl": {"type": "string"},
                "title": {"type": "string"},
                "totalClicks": {"type": "integer"}
            }
        },
        "domain.ClickEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "shortCode": {"type": "string"},
                "ipAddress": {"type": "string"},
                "userAgent": {"type": "string"},
                "referrer": {"type": "string"},
                "clickedAt": {"type": "string", "format": "date-time"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "object", "additionalProperties": {"type": "string"}},
                "timestamp": {"type": "string", "example": "2024-01-31T12:00:00Z"}
            }
        },
        "http.ReadyResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ready"},
                "cache": {"type": "string", "example": "up"},
                "timestamp": {"type": "string", "example": "2024-01-31T12:00:00Z"}
            }
        },
        "http.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string", "example": "Validation failed"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Shortlink API",
	Description:      "Short code redirects with cached resolution and reconciled click analytics",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
