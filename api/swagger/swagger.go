package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Drive API",
        "description": "Hierarchical document storage with trash, sharing, shared class/department repositories and a signing workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Drive", "description": "Personal drive tree, uploads, sharing and downloads"},
        {"name": "Trash", "description": "Soft delete, restore and permanent purge"},
        {"name": "ClassStorage", "description": "Shared class repositories"},
        {"name": "DepartmentStorage", "description": "Shared department repositories"},
        {"name": "Signing", "description": "Document approval workflow"},
        {"name": "Admin", "description": "Administrator inspection endpoints"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/drive/folders": {
            "post": {
                "tags": ["Drive"],
                "summary": "Create a folder in the personal drive",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFolderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name already taken in this folder"}
                }
            }
        },
        "/drive/files": {
            "post": {
                "tags": ["Drive"],
                "summary": "Upload a file into the personal drive",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "parent_id", "in": "formData", "type": "string"},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/items": {
            "get": {
                "tags": ["Drive"],
                "summary": "List drive items under a folder",
                "parameters": [
                    {"name": "parent_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/items/{id}": {
            "get": {
                "tags": ["Drive"],
                "summary": "Get one drive item",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or not readable"}
                }
            },
            "patch": {
                "tags": ["Drive"],
                "summary": "Rename or move a drive item",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name conflict at destination"},
                    "422": {"description": "Move would create a cycle"}
                }
            }
        },
        "/drive/items/{id}/content": {
            "put": {
                "tags": ["Drive"],
                "summary": "Replace a file's content, keeping its identity and shares",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/items/{id}/shares": {
            "get": {
                "tags": ["Drive"],
                "summary": "List grants on a drive item",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Drive"],
                "summary": "Share a drive item with another user",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ShareItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/items/{id}/shares/{userId}": {
            "delete": {
                "tags": ["Drive"],
                "summary": "Revoke a grant on a drive item",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "userId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Revoked"}
                }
            }
        },
        "/drive/items/{id}/download-link": {
            "get": {
                "tags": ["Drive"],
                "summary": "Issue a time-limited download URL for a file",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/download": {
            "get": {
                "tags": ["Drive"],
                "summary": "Download file content via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/drive/shared-with-me": {
            "get": {
                "tags": ["Drive"],
                "summary": "List items other users shared with the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/search": {
            "get": {
                "tags": ["Drive"],
                "summary": "Search accessible drive items",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "item_type", "in": "query", "type": "string", "enum": ["FILE", "FOLDER"]},
                    {"name": "mime_type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/items/{id}/trash": {
            "post": {
                "tags": ["Trash"],
                "summary": "Move an item and its subtree to trash",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already trashed"}
                }
            }
        },
        "/drive/trash": {
            "get": {
                "tags": ["Trash"],
                "summary": "List the caller's trashed items",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Trash"],
                "summary": "Permanently delete everything in the caller's trash",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/trash/{id}/restore": {
            "post": {
                "tags": ["Trash"],
                "summary": "Restore a trashed item and its subtree",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name conflict at restore destination"}
                }
            }
        },
        "/drive/trash/{id}": {
            "delete": {
                "tags": ["Trash"],
                "summary": "Permanently delete a trashed item and its subtree",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Purged"}
                }
            }
        },
        "/storage/class/{classId}/items": {
            "get": {
                "tags": ["ClassStorage"],
                "summary": "List class storage contents",
                "parameters": [
                    {"name": "classId", "in": "path", "type": "integer", "required": true},
                    {"name": "parent_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/storage/class/{classId}/files": {
            "post": {
                "tags": ["ClassStorage"],
                "summary": "Upload a file into class storage",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "classId", "in": "path", "type": "integer", "required": true},
                    {"name": "parent_id", "in": "formData", "type": "string"},
                    {"name": "notify", "in": "formData", "type": "boolean"},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/storage/class/{classId}/provision": {
            "post": {
                "tags": ["ClassStorage"],
                "summary": "Generate the standard class folder structure",
                "parameters": [
                    {"name": "classId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already provisioned"}
                }
            }
        },
        "/storage/my-classes": {
            "get": {
                "tags": ["ClassStorage"],
                "summary": "List the classes the acting lecturer teaches",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Caller is not a lecturer"}
                }
            }
        },
        "/storage/my-department": {
            "get": {
                "tags": ["DepartmentStorage"],
                "summary": "Show the caller's department with its sub-units",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No department on the caller's account"}
                }
            }
        },
        "/storage/department/{departmentId}/items": {
            "get": {
                "tags": ["DepartmentStorage"],
                "summary": "List department storage contents",
                "parameters": [
                    {"name": "departmentId", "in": "path", "type": "integer", "required": true},
                    {"name": "parent_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/storage/department/{departmentId}/files": {
            "post": {
                "tags": ["DepartmentStorage"],
                "summary": "Upload a file into department storage",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "departmentId", "in": "path", "type": "integer", "required": true},
                    {"name": "parent_id", "in": "formData", "type": "string"},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/storage/department/{departmentId}/provision": {
            "post": {
                "tags": ["DepartmentStorage"],
                "summary": "Generate the standard department folder structure",
                "parameters": [
                    {"name": "departmentId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already provisioned"}
                }
            }
        },
        "/signing/requests": {
            "get": {
                "tags": ["Signing"],
                "summary": "List the caller's signing requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Signing"],
                "summary": "Create a draft signing request for an owned PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSigningRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "An active request already exists for this item"}
                }
            }
        },
        "/signing/requests/pending": {
            "get": {
                "tags": ["Signing"],
                "summary": "List signing requests awaiting an administrator decision",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/signing/requests/{id}": {
            "get": {
                "tags": ["Signing"],
                "summary": "Get one signing request",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/signing/requests/{id}/submit": {
            "post": {
                "tags": ["Signing"],
                "summary": "Submit a draft signing request for review",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Request is not in DRAFT"}
                }
            }
        },
        "/signing/requests/{id}/approve": {
            "post": {
                "tags": ["Signing"],
                "summary": "Approve a pending signing request",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/DecideSigningRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Request is not in PENDING"}
                }
            }
        },
        "/signing/requests/{id}/reject": {
            "post": {
                "tags": ["Signing"],
                "summary": "Reject a pending signing request with a comment",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideSigningRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/items": {
            "get": {
                "tags": ["Admin"],
                "summary": "List all drive items across owners",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/items/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Permanently delete any item and its subtree",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "Page through cached user records",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/{id}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Look up a cached user record",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/{id}/items": {
            "get": {
                "tags": ["Admin"],
                "summary": "Inspect a user's live items under a folder",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "parent_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Aggregate service counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateFolderRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "parent_id": {"type": "string"}
            }
        },
        "UpdateItemRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "new_parent_id": {"type": "string"},
                "move_to_root": {"type": "boolean"}
            }
        },
        "ShareItemRequest": {
            "type": "object",
            "required": ["shared_with_user_id", "permission_level"],
            "properties": {
                "shared_with_user_id": {"type": "integer"},
                "permission_level": {"type": "string", "enum": ["VIEWER", "EDITOR"]}
            }
        },
        "CreateSigningRequest": {
            "type": "object",
            "required": ["drive_item_id"],
            "properties": {
                "drive_item_id": {"type": "string"}
            }
        },
        "DecideSigningRequest": {
            "type": "object",
            "properties": {
                "comment": {"type": "string"}
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
                "status": {"type": "integer"}
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
