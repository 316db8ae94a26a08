// Package docs holds the OpenAPI description of the patient API, registered
// with swag and served by echo-swagger at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/patients": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "List patients",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.patientResponse"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "description": "Persists the patient, then provisions billing and publishes PATIENT_CREATED.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Create a patient",
                "parameters": [
                    {"description": "Patient details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createPatientRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "headers": {"Location": {"type": "string", "description": "/patients/{id}"}}, "schema": {"$ref": "#/definitions/handler.patientResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/patients/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Get a patient",
                "parameters": [
                    {"type": "string", "description": "Patient id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.patientResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Update a patient",
                "parameters": [
                    {"type": "string", "description": "Patient id", "name": "id", "in": "path", "required": true},
                    {"description": "Patient details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updatePatientRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.patientResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "tags": ["patients"],
                "summary": "Delete a patient",
                "parameters": [
                    {"type": "string", "description": "Patient id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/domain.FieldError"}}
            }
        },
        "domain.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.createPatientRequest": {
            "type": "object",
            "required": ["address", "birth_date", "email", "name", "registered_date"],
            "properties": {
                "name": {"type": "string", "maxLength": 30, "minLength": 3},
                "email": {"type": "string"},
                "address": {"type": "string", "maxLength": 100, "minLength": 5},
                "birth_date": {"type": "string", "example": "1990-04-02"},
                "registered_date": {"type": "string", "example": "2024-01-15"}
            }
        },
        "handler.updatePatientRequest": {
            "type": "object",
            "required": ["address", "birth_date", "email", "name"],
            "properties": {
                "name": {"type": "string", "maxLength": 30, "minLength": 3},
                "email": {"type": "string"},
                "address": {"type": "string", "maxLength": 100, "minLength": 5},
                "birth_date": {"type": "string", "example": "1990-04-02"},
                "registered_date": {"type": "string", "example": "2024-01-15"}
            }
        },
        "handler.patientResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "patient_code": {"type": "string", "example": "P000001"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "birth_date": {"type": "string"},
                "registered_date": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Patient Service API",
	Description:      "Patient records behind the edge gateway. Requests arrive with their /api prefix stripped.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
