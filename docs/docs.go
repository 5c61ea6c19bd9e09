// Package docs holds the OpenAPI document served at /swagger/doc.json.
// It is kept in the shape `swag init` emits so that regenerating it from the
// handler annotations (`swag init -g main.go`) replaces this file cleanly.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "description": "Registers a new user and returns it with a bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "User Registration",
                "parameters": [
                    {
                        "description": "User registration details",
                        "name": "registerBody",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.RegisterRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "User registered successfully",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Envelope"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/auth.AuthResponse"}}}
                            ]
                        }
                    },
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "User with this email already exists", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Logs in an existing user and returns a bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "User Login",
                "parameters": [
                    {
                        "description": "User login credentials",
                        "name": "loginBody",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Login successful",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Envelope"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/auth.AuthResponse"}}}
                            ]
                        }
                    },
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "Invalid email or password", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/auth/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the user behind the bearer token.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Envelope"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/users.User"}}}
                            ]
                        }
                    },
                    "401": {"description": "Missing, expired or invalid token", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Lists the caller's tasks, newest first.",
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "List tasks",
                "parameters": [
                    {"type": "string", "description": "Filter by status (todo, in-progress, done)", "name": "status", "in": "query"},
                    {"type": "string", "description": "Filter by priority (low, medium, high)", "name": "priority", "in": "query"},
                    {"type": "integer", "default": 100, "description": "Page size, capped at 1000", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "Rows to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Envelope"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/tasks.Task"}}}}
                            ]
                        }
                    },
                    "401": {"description": "Missing, expired or invalid token", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates a task owned by the caller. New tasks start as \"todo\".",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Create task",
                "parameters": [
                    {
                        "description": "Task to create",
                        "name": "taskBody",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/tasks.CreateTaskRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Task created successfully",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Envelope"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/tasks.Task"}}}
                            ]
                        }
                    },
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "Missing, expired or invalid token", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Get task",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Envelope"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/tasks.Task"}}}
                            ]
                        }
                    },
                    "401": {"description": "Missing, expired or invalid token", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Applies a partial update. At least one of title, description, status or priority is required.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Update task",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "patch",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/tasks.Patch"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Task updated successfully",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Envelope"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/tasks.Task"}}}
                            ]
                        }
                    },
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "Missing, expired or invalid token", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Delete task",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Task deleted successfully", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Missing, expired or invalid token", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Overall status including a database probe. Answers 503 when the database is unhealthy.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/health/db": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Database health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/health/system": {
            "get": {
                "description": "Not available in production.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Runtime details",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "403": {"description": "System info not available in production", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "auth.AuthResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string", "example": "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."},
                "user": {"$ref": "#/definitions/users.User"}
            }
        },
        "auth.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "ann@example.com"},
                "password": {"type": "string", "example": "secret1"}
            }
        },
        "auth.RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "ann@example.com"},
                "name": {"type": "string", "example": "Ann"},
                "password": {"type": "string", "example": "secret1"}
            }
        },
        "response.Envelope": {
            "type": "object",
            "properties": {
                "data": {},
                "details": {"$ref": "#/definitions/response.ErrorDetails"},
                "error": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string", "example": "Task created successfully"},
                "success": {"type": "boolean", "example": true}
            }
        },
        "response.ErrorDetails": {
            "type": "object",
            "properties": {
                "originalMessage": {"type": "string"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "NOT_FOUND"},
                "message": {"type": "string", "example": "task not found"},
                "success": {"type": "boolean", "example": false}
            }
        },
        "tasks.CreateTaskRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string", "example": "Two litres"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"], "example": "medium"},
                "title": {"type": "string", "example": "Buy milk"}
            }
        },
        "tasks.Patch": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"], "example": "high"},
                "status": {"type": "string", "enum": ["todo", "in-progress", "done"], "example": "done"},
                "title": {"type": "string", "example": "Buy oat milk"}
            }
        },
        "tasks.Task": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "description": {"type": "string", "example": "Two litres, semi-skimmed"},
                "id": {"type": "string", "example": "9b2d7c1e-3a4f-4e5b-8c6d-7e8f9a0b1c2d"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"], "example": "medium"},
                "status": {"type": "string", "enum": ["todo", "in-progress", "done"], "example": "todo"},
                "title": {"type": "string", "example": "Buy milk"},
                "updatedAt": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "users.User": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "email": {"type": "string", "example": "ann@example.com"},
                "id": {"type": "string", "example": "3f1c2a8e-6b1d-4f0a-9d6e-2b7f5c1e9a40"},
                "name": {"type": "string", "example": "Ann"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type 'Bearer YOUR_JWT_TOKEN' to authorize",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Task Manager API",
	Description:      "Task management REST API: registration and login with bearer tokens, and per-user task CRUD.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
