package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Submission Restrict API",
        "description": "Due-date restriction service for course activities",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and token issuance"},
        {"name": "Activities", "description": "Restricted due-date form per activity"},
        {"name": "Settings", "description": "Adapter configuration"},
        {"name": "Reports", "description": "Override report and exports"},
        {"name": "Events", "description": "Host event intake"},
        {"name": "Privacy", "description": "Subject access and erasure"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/activities/{id}/form": {
            "get": {
                "tags": ["Activities"],
                "summary": "Render the due-date form",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "mod", "in": "query", "type": "string", "default": "assign"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown activity type or unconfigured adapter"}
                }
            },
            "post": {
                "tags": ["Activities"],
                "summary": "Submit the due-date form",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "mod", "in": "query", "type": "string", "default": "assign"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitFormRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/activities/{id}/restriction": {
            "delete": {
                "tags": ["Activities"],
                "summary": "Delete an activity's override",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "No override stored"}
                }
            }
        },
        "/courses/{id}/restrictions": {
            "delete": {
                "tags": ["Activities"],
                "summary": "Delete a course's overrides",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "List settings",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings/{key}": {
            "put": {
                "tags": ["Settings"],
                "summary": "Update a setting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"},
                    "404": {"description": "Unknown setting"}
                }
            }
        },
        "/mods": {
            "get": {
                "tags": ["Activities"],
                "summary": "List functional activity types",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Override report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "mod", "in": "query", "type": "string"},
                    {"name": "course_id", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export the override report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "mod", "in": "query", "type": "string"},
                    {"name": "course_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unknown format"}
                }
            }
        },
        "/report/archive": {
            "post": {
                "tags": ["Reports"],
                "summary": "Archive the override report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "mod", "in": "query", "type": "string"},
                    {"name": "course_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown format"}
                }
            }
        },
        "/report/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download an archived export",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "401": {"description": "Invalid or expired token"},
                    "404": {"description": "Export no longer available"}
                }
            }
        },
        "/events/grade-item-created": {
            "post": {
                "tags": ["Events"],
                "summary": "Grade-item-created intake",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeItemCreatedEvent"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/privacy/users/{id}/restrictions": {
            "get": {
                "tags": ["Privacy"],
                "summary": "Export a user's override records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/privacy/users/{id}/anonymize": {
            "post": {
                "tags": ["Privacy"],
                "summary": "Anonymise a user's override records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "SubmitFormRequest": {
            "type": "object",
            "properties": {
                "values": {
                    "type": "object",
                    "additionalProperties": {"type": "string"}
                }
            },
            "required": ["values"]
        },
        "UpdateSettingRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "string"}
            },
            "required": ["value"]
        },
        "GradeItemCreatedEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "course_id": {"type": "integer"},
                "item_type": {"type": "string"},
                "item_module": {"type": "string"},
                "item_instance": {"type": "integer"},
                "request_origin": {"type": "string"}
            },
            "required": ["id", "item_type"]
        },
        "Restriction": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "activity_id": {"type": "integer"},
                "mod_name": {"type": "string"},
                "new_date": {"type": "integer"},
                "reason": {"type": "string"},
                "modified_by": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {
                    "type": "object",
                    "additionalProperties": {"type": "string"}
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
