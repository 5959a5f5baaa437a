package swagger

import (
	"strings"

	"github.com/swaggo/swag"
)

// BasePath is substituted into the document when it is served.
var BasePath = "/api/v1"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Club Portal API",
        "description": "Screen backend for the sports club portal",
        "version": "1.0.0"
    },
    "basePath": "{{BASE_PATH}}",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [
        {
            "BearerAuth": []
        }
    ],
    "tags": [
        {
            "name": "Password",
            "description": "Change password screen"
        },
        {
            "name": "Enrollment",
            "description": "Course enrollment wizard"
        },
        {
            "name": "Users",
            "description": "User administration screen"
        },
        {
            "name": "Roles",
            "description": "Role administration screen"
        },
        {
            "name": "Receipts",
            "description": "Signed enrollment receipts"
        }
    ],
    "paths": {
        "/screens/password": {
            "post": {
                "tags": [
                    "Password"
                ],
                "summary": "Mount the change password screen",
                "responses": {
                    "201": {
                        "description": "Mounted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/screens/password/{id}": {
            "get": {
                "tags": [
                    "Password"
                ],
                "summary": "Current state of the change password screen",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Screen not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Password"
                ],
                "summary": "Discard the change password screen",
                "responses": {
                    "204": {
                        "description": "Unmounted"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/password/{id}/submit": {
            "post": {
                "tags": [
                    "Password"
                ],
                "summary": "Submit the change password form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid form",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PasswordForm"
                        }
                    }
                ]
            }
        },
        "/screens/enrollment": {
            "post": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Mount the enrollment wizard",
                "responses": {
                    "201": {
                        "description": "Mounted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Club API unavailable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "curso",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "grupo",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/screens/enrollment/{id}": {
            "get": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Current state of the enrollment wizard",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Screen not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Discard the enrollment wizard",
                "responses": {
                    "204": {
                        "description": "Unmounted"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/enrollment/{id}/participant": {
            "post": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Pick the participant to enroll",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectRequest"
                        }
                    }
                ]
            }
        },
        "/screens/enrollment/{id}/course": {
            "post": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Pick a course and load its groups",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectRequest"
                        }
                    }
                ]
            }
        },
        "/screens/enrollment/{id}/group": {
            "post": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Pick a group with free slots",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Group full",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectRequest"
                        }
                    }
                ]
            }
        },
        "/screens/enrollment/{id}/continue": {
            "post": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Advance to the next step",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Selection incomplete",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/enrollment/{id}/back": {
            "post": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Return to the previous step",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/enrollment/{id}/payment": {
            "put": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Update the payment step",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PaymentRequest"
                        }
                    }
                ]
            }
        },
        "/screens/enrollment/{id}/submit": {
            "post": {
                "tags": [
                    "Enrollment"
                ],
                "summary": "Create the enrollment",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Selection incomplete",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Rejected by the club API",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/users": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Mount the users screen",
                "responses": {
                    "201": {
                        "description": "Mounted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/screens/users/{id}": {
            "get": {
                "tags": [
                    "Users"
                ],
                "summary": "Current state of the users screen",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Screen not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Users"
                ],
                "summary": "Discard the users screen",
                "responses": {
                    "204": {
                        "description": "Unmounted"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/users/{id}/page": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Go to a page",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PageRequest"
                        }
                    }
                ]
            }
        },
        "/screens/users/{id}/per-page": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Change the page size",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PerPageRequest"
                        }
                    }
                ]
            }
        },
        "/screens/users/{id}/search": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Search users",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SearchRequest"
                        }
                    }
                ]
            }
        },
        "/screens/users/{id}/sort": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Sort users",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SortRequest"
                        }
                    }
                ]
            }
        },
        "/screens/users/{id}/filters": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Filter users",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/FiltersRequest"
                        }
                    }
                ]
            }
        },
        "/screens/users/{id}/status": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Change a user's status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UserStatusChange"
                        }
                    }
                ]
            }
        },
        "/screens/users/{id}/refresh": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Reload the current page",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/users/{id}/form": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Open an empty user form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Users"
                ],
                "summary": "Close the user form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/users/{id}/form/submit": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Submit the user form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid form",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UserForm"
                        }
                    }
                ]
            }
        },
        "/screens/users/{id}/edit/{userId}": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Open the user form for a loaded user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/screens/users/{id}/detail/{userId}": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Show a user's detail",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/screens/users/{id}/detail": {
            "delete": {
                "tags": [
                    "Users"
                ],
                "summary": "Close the detail panel",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/users/{id}/delete/{userId}": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Ask for delete confirmation",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/screens/users/{id}/delete": {
            "delete": {
                "tags": [
                    "Users"
                ],
                "summary": "Dismiss the delete dialog",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/users/{id}/confirm-delete": {
            "post": {
                "tags": [
                    "Users"
                ],
                "summary": "Delete the user under confirmation",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/users/{id}/export.csv": {
            "get": {
                "tags": [
                    "Users"
                ],
                "summary": "Export the loaded users as CSV",
                "produces": [
                    "text/csv"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "CSV file"
                    }
                }
            }
        },
        "/screens/roles": {
            "post": {
                "tags": [
                    "Roles"
                ],
                "summary": "Mount the roles screen",
                "responses": {
                    "201": {
                        "description": "Mounted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/screens/roles/{id}": {
            "get": {
                "tags": [
                    "Roles"
                ],
                "summary": "Current state of the roles screen",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Screen not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Roles"
                ],
                "summary": "Discard the roles screen",
                "responses": {
                    "204": {
                        "description": "Unmounted"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/roles/{id}/refresh": {
            "post": {
                "tags": [
                    "Roles"
                ],
                "summary": "Reload the roles",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/roles/{id}/form": {
            "post": {
                "tags": [
                    "Roles"
                ],
                "summary": "Open an empty role form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Roles"
                ],
                "summary": "Close the role form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/roles/{id}/form/submit": {
            "post": {
                "tags": [
                    "Roles"
                ],
                "summary": "Submit the role form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid form",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RoleForm"
                        }
                    }
                ]
            }
        },
        "/screens/roles/{id}/edit/{roleId}": {
            "post": {
                "tags": [
                    "Roles"
                ],
                "summary": "Open the role form for a loaded role",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "roleId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/screens/roles/{id}/delete/{roleId}": {
            "post": {
                "tags": [
                    "Roles"
                ],
                "summary": "Ask for delete confirmation",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "roleId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/screens/roles/{id}/delete": {
            "delete": {
                "tags": [
                    "Roles"
                ],
                "summary": "Dismiss the delete dialog",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/screens/roles/{id}/confirm-delete": {
            "post": {
                "tags": [
                    "Roles"
                ],
                "summary": "Delete the role under confirmation",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/receipts/{token}": {
            "get": {
                "tags": [
                    "Receipts"
                ],
                "summary": "Download an enrollment receipt",
                "produces": [
                    "application/pdf"
                ],
                "security": [],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "PDF receipt"
                    },
                    "401": {
                        "description": "Invalid link",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Expired or unknown receipt",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "PasswordForm": {
            "type": "object",
            "properties": {
                "current_password": {
                    "type": "string"
                },
                "new_password": {
                    "type": "string"
                },
                "confirm_password": {
                    "type": "string"
                }
            },
            "required": [
                "current_password",
                "new_password",
                "confirm_password"
            ]
        },
        "SelectRequest": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                }
            },
            "required": [
                "id"
            ]
        },
        "PaymentRequest": {
            "type": "object",
            "properties": {
                "method": {
                    "type": "string",
                    "enum": [
                        "transferencia",
                        "efectivo",
                        "tarjeta"
                    ]
                },
                "reference": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "PageRequest": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                }
            }
        },
        "PerPageRequest": {
            "type": "object",
            "properties": {
                "per_page": {
                    "type": "integer"
                }
            }
        },
        "SearchRequest": {
            "type": "object",
            "properties": {
                "search": {
                    "type": "string"
                }
            }
        },
        "SortRequest": {
            "type": "object",
            "properties": {
                "column": {
                    "type": "string"
                },
                "direction": {
                    "type": "string",
                    "enum": [
                        "asc",
                        "desc"
                    ]
                }
            }
        },
        "FiltersRequest": {
            "type": "object",
            "properties": {
                "filters": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "UserStatusChange": {
            "type": "object",
            "properties": {
                "id_usuario": {
                    "type": "integer"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "activo",
                        "inactivo",
                        "suspendido"
                    ]
                }
            }
        },
        "UserForm": {
            "type": "object",
            "properties": {
                "nombre": {
                    "type": "string"
                },
                "apellido": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "cedula": {
                    "type": "string"
                },
                "telefono": {
                    "type": "string"
                },
                "id_rol": {
                    "type": "integer"
                },
                "password": {
                    "type": "string"
                }
            },
            "required": [
                "nombre",
                "apellido",
                "email"
            ]
        },
        "RoleForm": {
            "type": "object",
            "properties": {
                "nombre": {
                    "type": "string"
                },
                "descripcion": {
                    "type": "string"
                }
            },
            "required": [
                "nombre"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "per_page": {
                    "type": "integer"
                },
                "total": {
                    "type": "integer"
                },
                "last_page": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return strings.Replace(docTemplate, "{{BASE_PATH}}", BasePath, 1)
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
