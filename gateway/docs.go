package gateway

import "github.com/swaggo/swag"

// apiTemplate is the OpenAPI 2.0 description served under /swagger.
const apiTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {
            "get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}
        },
        "/track-order": {
            "post": {
                "summary": "Look up an order by its order number",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/TrackRequest"}}],
                "responses": {
                    "200": {"description": "public order projection"},
                    "404": {"description": "order not found", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "lookup failed", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api/products": {
            "get": {
                "summary": "List active products",
                "parameters": [
                    {"in": "query", "name": "category", "type": "string"},
                    {"in": "query", "name": "type", "type": "string", "enum": ["STANDARD", "CUSTOM"]},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "pageSize", "type": "integer"}
                ],
                "responses": {"200": {"description": "product page"}, "400": {"description": "invalid filter", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/products/{slug}": {
            "get": {
                "summary": "Get an active product",
                "parameters": [{"in": "path", "name": "slug", "type": "string", "required": true}],
                "responses": {"200": {"description": "product"}, "404": {"description": "not found", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/categories": {
            "get": {"summary": "List categories", "responses": {"200": {"description": "categories"}}}
        },
        "/api/settings": {
            "get": {"summary": "Public store settings", "responses": {"200": {"description": "settings"}}}
        },
        "/api/cart/quote": {
            "post": {
                "summary": "Price a cart from server-side catalog data",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Cart"}}],
                "responses": {"200": {"description": "quote"}}
            }
        },
        "/api/checkout": {
            "post": {
                "summary": "Place an order",
                "security": [{"bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Checkout"}}],
                "responses": {
                    "201": {"description": "order placed"},
                    "400": {"description": "invalid form or empty cart", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "not logged in", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "store closed", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api/admin/orders": {
            "get": {
                "summary": "List orders",
                "security": [{"bearer": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "pageSize", "type": "integer"}
                ],
                "responses": {"200": {"description": "order page"}, "403": {"description": "not an admin", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/admin/orders/export": {
            "get": {
                "summary": "Export orders as CSV",
                "security": [{"bearer": []}],
                "produces": ["text/csv"],
                "parameters": [{"in": "query", "name": "status", "type": "string"}],
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/api/admin/orders/{id}": {
            "get": {
                "summary": "Get an order",
                "security": [{"bearer": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "order"}, "404": {"description": "not found", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/admin/orders/{id}/history": {
            "get": {
                "summary": "Audit history of an order",
                "security": [{"bearer": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "history"}}
            }
        },
        "/api/admin/orders/{id}/status": {
            "put": {
                "summary": "Set the order status",
                "security": [{"bearer": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/StatusUpdate"}}
                ],
                "responses": {"200": {"description": "updated order"}, "400": {"description": "invalid status", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/admin/orders/{id}/tracking": {
            "put": {
                "summary": "Set courier tracking details",
                "security": [{"bearer": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/TrackingUpdate"}}
                ],
                "responses": {"200": {"description": "updated order"}, "400": {"description": "invalid tracking", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/admin/settings": {
            "get": {"summary": "Full store settings", "security": [{"bearer": []}], "responses": {"200": {"description": "settings"}}},
            "put": {
                "summary": "Overwrite store settings",
                "security": [{"bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SettingsUpdate"}}],
                "responses": {"200": {"description": "saved settings"}, "400": {"description": "invalid settings", "schema": {"$ref": "#/definitions/Error"}}}
            }
        }
    },
    "definitions": {
        "Error": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "fields": {
                    "type": "array",
                    "items": {"type": "object", "properties": {"field": {"type": "string"}, "message": {"type": "string"}}}
                }
            }
        },
        "CartLine": {
            "type": "object",
            "properties": {
                "productId": {"type": "string"},
                "quantity": {"type": "integer"},
                "customizations": {
                    "type": "array",
                    "items": {"type": "object", "properties": {"attributeId": {"type": "string"}, "value": {"type": "string"}}}
                }
            }
        },
        "Cart": {
            "type": "object",
            "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/CartLine"}}}
        },
        "Checkout": {
            "type": "object",
            "properties": {
                "fullName": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "addressLine1": {"type": "string"},
                "addressLine2": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "pincode": {"type": "string"},
                "landmark": {"type": "string"},
                "paymentMethod": {"type": "string", "enum": ["COD", "UPI"]},
                "transactionId": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/CartLine"}}
            }
        },
        "TrackRequest": {
            "type": "object",
            "properties": {"orderId": {"type": "string", "description": "order number"}}
        },
        "StatusUpdate": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "TrackingUpdate": {
            "type": "object",
            "properties": {"trackingNumber": {"type": "string"}, "courierName": {"type": "string"}}
        },
        "SettingsUpdate": {
            "type": "object",
            "properties": {
                "upiId": {"type": "string"},
                "deliveryFee": {"type": "string"},
                "isStoreOpen": {"type": "boolean"},
                "bannerMessage": {"type": "string"}
            }
        }
    }
}`

// APIInfo describes the storefront HTTP API.
var APIInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Title:            "zastore storefront API",
	Description:      "Catalog, cart pricing, checkout, order tracking and store administration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  apiTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(APIInfo.InstanceName(), APIInfo)
}
