// Package docs holds the Swagger description served at /api/swagger.
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
		"/colleges": {
			"get": {
				"tags": [
					"catalog"
				],
				"summary": "List residential colleges",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					}
				]
			}
		},
		"/items": {
			"get": {
				"tags": [
					"catalog"
				],
				"summary": "Browse listings",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Search text",
						"name": "q",
						"in": "query"
					},
					{
						"type": "string",
						"description": "College or All",
						"name": "college",
						"in": "query"
					},
					{
						"type": "number",
						"description": "Maximum distance in miles",
						"name": "max_distance",
						"in": "query"
					},
					{
						"type": "number",
						"description": "Minimum price",
						"name": "min_price",
						"in": "query"
					},
					{
						"type": "number",
						"description": "Maximum price",
						"name": "max_price",
						"in": "query"
					},
					{
						"type": "string",
						"description": "newest, price_asc, price_desc or distance",
						"name": "sort",
						"in": "query"
					}
				]
			},
			"post": {
				"tags": [
					"catalog"
				],
				"summary": "Create a listing",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"description": "Listing",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/items/{id}": {
			"get": {
				"tags": [
					"catalog"
				],
				"summary": "Item detail",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"type": "integer",
						"description": "Item ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/items/{id}/status": {
			"put": {
				"tags": [
					"catalog"
				],
				"summary": "Mark an item sold or available",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"type": "integer",
						"description": "Item ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "New status",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/marketplace": {
			"get": {
				"tags": [
					"marketplace"
				],
				"summary": "Viewer's marketplace state",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					}
				]
			}
		},
		"/marketplace/filters": {
			"put": {
				"tags": [
					"marketplace"
				],
				"summary": "Update the viewer's filter",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"description": "Partial filter",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/recommendations": {
			"get": {
				"tags": [
					"marketplace"
				],
				"summary": "Current recommendations",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					}
				]
			}
		},
		"/recommendations/refresh": {
			"post": {
				"tags": [
					"marketplace"
				],
				"summary": "Recompute recommendations",
				"produces": [
					"application/json"
				],
				"responses": {
					"202": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					}
				]
			}
		},
		"/wishlist": {
			"get": {
				"tags": [
					"wishlist"
				],
				"summary": "Viewer's wishlist",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					}
				]
			}
		},
		"/wishlist/{id}/toggle": {
			"post": {
				"tags": [
					"wishlist"
				],
				"summary": "Add or remove an item from the wishlist",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"type": "integer",
						"description": "Item ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/profile": {
			"get": {
				"tags": [
					"profile"
				],
				"summary": "Viewer's profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					}
				]
			},
			"put": {
				"tags": [
					"profile"
				],
				"summary": "Update the viewer's profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"description": "Profile fields",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/users/{id}": {
			"get": {
				"tags": [
					"profile"
				],
				"summary": "Public profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"type": "integer",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/chats": {
			"get": {
				"tags": [
					"chat"
				],
				"summary": "Viewer's inbox",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					}
				]
			}
		},
		"/chats/{itemId}": {
			"get": {
				"tags": [
					"chat"
				],
				"summary": "Viewer's thread for an item",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"type": "integer",
						"description": "Item ID",
						"name": "itemId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Buyer ID, required for sellers",
						"name": "with",
						"in": "query"
					}
				]
			}
		},
		"/chats/{itemId}/messages": {
			"post": {
				"tags": [
					"chat"
				],
				"summary": "Send a chat message about an item",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "Acting viewer",
						"name": "X-Viewer-ID",
						"in": "header"
					},
					{
						"type": "integer",
						"description": "Item ID",
						"name": "itemId",
						"in": "path",
						"required": true
					},
					{
						"description": "Message",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		}
	},
	"definitions": {
		"models.ErrorResponse": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"details": {
					"type": "string"
				},
				"error": {
					"type": "string"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8375",
	BasePath:		 "/api",
	Schemes:		  []string{},
	Title:			"Thrift Marketplace API",
	Description:	  "Campus marketplace: listings, recommendations, wishlists and chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
