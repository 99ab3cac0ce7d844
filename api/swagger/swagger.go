package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Calendar Portlet API",
        "description": "Aggregated calendar view for portal windows",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Calendar", "description": "Calendar portlet view, events and session range"},
        {"name": "Feeds", "description": "Signed iCalendar exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics exposition"}
                }
            }
        },
        "/api/v1/portlets/{windowId}/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Render the calendar portlet view",
                "parameters": [
                    {"name": "windowId", "in": "path", "required": true, "type": "string"},
                    {"name": "interval", "in": "query", "type": "string", "description": "ISO-8601 interval, e.g. 2024-01-01T00:00:00.000Z/P7D"},
                    {"name": "hideCalendar", "in": "query", "type": "integer"},
                    {"name": "showCalendar", "in": "query", "type": "integer"},
                    {"name": "windowState", "in": "query", "type": "string"},
                    {"name": "X-Window-State", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad interval, calendar id or timezone", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session not initialized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portlets/{windowId}/calendar/events": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List occurrences of every visible calendar",
                "parameters": [
                    {"name": "windowId", "in": "path", "required": true, "type": "string"},
                    {"name": "interval", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad interval", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session not initialized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/portlets/{windowId}/calendar/session": {
            "put": {
                "tags": ["Calendar"],
                "summary": "Change the displayed date range",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "windowId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionRange"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/feeds/{token}": {
            "get": {
                "tags": ["Feeds"],
                "summary": "Download a calendar as iCalendar",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "iCalendar document"},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SessionRange": {
            "type": "object",
            "required": ["startDate", "days"],
            "properties": {
                "startDate": {"type": "string", "example": "2024-03-01"},
                "days": {"type": "integer", "minimum": 1, "maximum": 366},
                "timezone": {"type": "string", "example": "America/New_York"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
