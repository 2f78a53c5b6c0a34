// Package docs registers the OpenAPI document of the ops API with swag so
// gin-swagger can serve it. Regenerate with `swag init` after changing the
// handler annotations.
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
        "OpsToken": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"OpsToken": []}],
    "paths": {
        "/users": {
            "get": {
                "operationId": "listUsers",
                "tags": ["Users"],
                "summary": "List cached users",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "default": 50, "description": "Page size", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListUsersResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "operationId": "getUser",
                "tags": ["Users"],
                "summary": "Get a cached user",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UserDTO"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/status": {
            "put": {
                "operationId": "setUserStatus",
                "tags": ["Users"],
                "summary": "Change a user's status",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SetStatusRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/orders": {
            "post": {
                "operationId": "createOrder",
                "tags": ["Orders"],
                "summary": "Attach a new order to a user",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"description": "Order", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateOrderRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/orders/{orderID}": {
            "patch": {
                "operationId": "updateOrder",
                "tags": ["Orders"],
                "summary": "Update a flushed order",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Order ID", "name": "orderID", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateOrderRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "operationId": "deleteOrder",
                "tags": ["Orders"],
                "summary": "Delete a flushed order",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Order ID", "name": "orderID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chats/{id}/triggers": {
            "get": {
                "operationId": "listChatTriggers",
                "tags": ["Triggers"],
                "summary": "List a chat's triggers",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "Chat ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ChatTriggersResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/dump": {
            "post": {
                "operationId": "dump",
                "tags": ["Admin"],
                "summary": "Flush the cache to the store",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.FlushResponse"}},
                    "503": {"description": "Flush failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "user not found"}
            }
        },
        "handlers.OrderDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 12},
                "res_code": {"type": "integer", "example": 3},
                "bought_amount": {"type": "integer", "example": 1},
                "wanted_amount": {"type": "integer", "example": 10},
                "price": {"type": "integer", "example": 250},
                "pending": {"type": "boolean", "example": false}
            }
        },
        "handlers.UserDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 42},
                "nickname": {"type": "string", "example": "cheshire"},
                "status": {"type": "string", "example": "admin"},
                "orders": {"type": "array", "items": {"$ref": "#/definitions/handlers.OrderDTO"}}
            }
        },
        "handlers.ListUsersResponse": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"$ref": "#/definitions/handlers.UserDTO"}},
                "page": {"type": "integer", "example": 1},
                "page_size": {"type": "integer", "example": 50},
                "total": {"type": "integer", "example": 120}
            }
        },
        "handlers.ChatTriggersResponse": {
            "type": "object",
            "properties": {
                "chat_id": {"type": "integer", "example": -1001234},
                "triggers": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.SetStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string", "example": "trade"}}
        },
        "handlers.CreateOrderRequest": {
            "type": "object",
            "properties": {
                "res_code": {"type": "integer", "example": 3},
                "wanted_amount": {"type": "integer", "example": 10},
                "price": {"type": "integer", "example": 250}
            }
        },
        "handlers.UpdateOrderRequest": {
            "type": "object",
            "properties": {
                "wanted_amount": {"type": "integer", "example": 5},
                "bought_amount": {"type": "integer", "example": 2}
            }
        },
        "handlers.FlushResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "flushed"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Cheshire Bot ops API",
	Description:      "Operator endpoints over the bot's trigger, user, and order cache.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
