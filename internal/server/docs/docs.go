// Package docs holds the Swagger 2.0 document served under /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/healthz": {
            "get": {
                "summary": "Liveness check with the task count",
                "security": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Health"}}}
            }
        },
        "/time": {
            "get": {
                "summary": "Current server time",
                "security": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Time"}}}
            }
        },
        "/tasks": {
            "get": {
                "summary": "List every task in due order",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskList"}}}
            },
            "post": {
                "summary": "Create a task",
                "parameters": [{"in": "body", "name": "task", "required": true, "schema": {"$ref": "#/definitions/TaskInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/TaskResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Applied but not persisted", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "delete": {
                "summary": "Delete every task",
                "responses": {"200": {"description": "Number of deleted tasks", "schema": {"$ref": "#/definitions/Deleted"}}}
            }
        },
        "/tasks/batch": {
            "post": {
                "summary": "Create several tasks with one flush",
                "parameters": [{"in": "body", "name": "tasks", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/TaskInput"}}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/TaskList"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/tasks/window": {
            "get": {
                "summary": "Tasks due between start and end inclusive",
                "parameters": [
                    {"in": "query", "name": "start", "type": "string", "required": true, "description": "RFC 3339 or local ISO 8601"},
                    {"in": "query", "name": "end", "type": "string", "required": true, "description": "RFC 3339 or local ISO 8601"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskList"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/tasks/upcoming": {
            "get": {
                "summary": "Tasks due within the next days",
                "parameters": [{"in": "query", "name": "days", "type": "integer", "minimum": 0}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskList"}},
                    "400": {"description": "Negative days", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/tasks/roll": {
            "post": {
                "summary": "Advance overdue recurring tasks past now",
                "responses": {"200": {"description": "Advanced tasks", "schema": {"$ref": "#/definitions/Advanced"}}}
            }
        },
        "/tasks/{id}": {
            "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
            "get": {
                "summary": "Get a task",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "patch": {
                "summary": "Update a task; a due time change issues a new id",
                "parameters": [{"in": "body", "name": "patch", "required": true, "schema": {"$ref": "#/definitions/TaskInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "delete": {
                "summary": "Delete a task",
                "responses": {"200": {"description": "Whether the task existed", "schema": {"type": "object", "properties": {"deleted": {"type": "boolean"}}}}}
            }
        },
        "/tasks/{id}/advance": {
            "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
            "post": {
                "summary": "Move a recurring task to its next occurrence",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "Task does not recur", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "0b6f1f3e-8d4c-4c1e-9a55-3f1f7f0a2c11_1767225600"},
                "summary": {"type": "string"},
                "details": {"type": "string"},
                "is_recurring": {"type": "boolean"},
                "recurrence_unit": {"type": "string", "example": "week"},
                "recurrence_interval": {"type": "integer"},
                "due_time": {"type": "string", "format": "date-time"},
                "alert_offsets": {"type": "string", "example": "0s;15m"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "TaskInput": {
            "type": "object",
            "properties": {
                "summary": {"type": "string"},
                "details": {"type": "string"},
                "is_recurring": {"type": "boolean"},
                "recurrence_unit": {"type": "string", "enum": ["day", "week", "month", "year", "daily", "weekly", "monthly", "yearly"]},
                "recurrence_interval": {"type": "integer", "minimum": 1},
                "due_time": {"type": "string", "example": "2026-01-01T09:00:00+01:00"},
                "alert_offsets": {"type": "string", "example": "0s;15m"}
            }
        },
        "TaskResponse": {
            "type": "object",
            "properties": {"task": {"$ref": "#/definitions/Task"}}
        },
        "TaskList": {
            "type": "object",
            "properties": {"tasks": {"type": "array", "items": {"$ref": "#/definitions/Task"}}}
        },
        "Advanced": {
            "type": "object",
            "properties": {"advanced": {"type": "array", "items": {"$ref": "#/definitions/Task"}}}
        },
        "Deleted": {
            "type": "object",
            "properties": {"deleted": {"type": "integer"}}
        },
        "Health": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "tasks": {"type": "integer"}}
        },
        "Time": {
            "type": "object",
            "properties": {"now": {"type": "string", "format": "date-time"}, "unix": {"type": "integer"}}
        },
        "Error": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "field": {"type": "string"},
                "durable": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo is the registered document. Host is left empty so the UI
// targets whichever address served it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "tasklist API",
	Description:      "Tasks ordered by due time, with recurrence and alerts.",
	InfoInstanceName: swag.Name,
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
