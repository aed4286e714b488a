package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HRM Case API",
        "description": "Incident report intake, review and case management for human rights monitoring.",
        "version": "1.0.0"
    },
    "basePath": "/",
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
    "tags": [
        {
            "name": "Reports",
            "description": "Incident report intake and review"
        },
        {
            "name": "Cases",
            "description": "Case registry"
        },
        {
            "name": "Evidence",
            "description": "Evidence download links"
        },
        {
            "name": "Violation Types",
            "description": "Violation taxonomy"
        },
        {
            "name": "Analytics",
            "description": "Aggregates for dashboards"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Degraded"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Issue an access token",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/LoginRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Current user claims",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/api/v1/reports": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Submit an incident report",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "207": {
                        "description": "Stored with evidence failures",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "reporter_type",
                        "in": "formData",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "anonymous",
                        "in": "formData",
                        "type": "boolean"
                    },
                    {
                        "name": "pseudonym",
                        "in": "formData",
                        "type": "string"
                    },
                    {
                        "name": "contact_info",
                        "in": "formData",
                        "type": "string",
                        "description": "JSON object"
                    },
                    {
                        "name": "incident_date",
                        "in": "formData",
                        "type": "string"
                    },
                    {
                        "name": "location",
                        "in": "formData",
                        "type": "string"
                    },
                    {
                        "name": "violation_types",
                        "in": "formData",
                        "type": "array",
                        "items": {
                            "type": "string"
                        }
                    },
                    {
                        "name": "description",
                        "in": "formData",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "evidence",
                        "in": "formData",
                        "type": "file"
                    }
                ]
            },
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "List incident reports",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "description": "Status"
                    },
                    {
                        "name": "pending_only",
                        "in": "query",
                        "type": "boolean",
                        "description": "Pending only"
                    },
                    {
                        "name": "country",
                        "in": "query",
                        "type": "string",
                        "description": "Country"
                    },
                    {
                        "name": "created_from",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "created_to",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "description": "Page"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "type": "integer",
                        "description": "Page size"
                    }
                ]
            }
        },
        "/api/v1/reports/{id}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Get an incident report",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
        "/api/v1/reports/{id}/history": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Report status history",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
        "/api/v1/reports/{id}/review": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Mark a report under review",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
        "/api/v1/reports/{id}/decision": {
            "put": {
                "tags": [
                    "Reports"
                ],
                "summary": "Approve or reject a report",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
                            "$ref": "#/definitions/DecideReportRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/reports/{id}/promote": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Promote an approved report to a case",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/PromoteCaseRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/cases": {
            "post": {
                "tags": [
                    "Cases"
                ],
                "summary": "Create a case",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateCaseRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "Cases"
                ],
                "summary": "List cases",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "description": "Status"
                    },
                    {
                        "name": "country",
                        "in": "query",
                        "type": "string",
                        "description": "Country"
                    },
                    {
                        "name": "violation_type",
                        "in": "query",
                        "type": "string",
                        "description": "Violation type"
                    },
                    {
                        "name": "occurred_from",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "occurred_to",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "description": "Page"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "type": "integer",
                        "description": "Page size"
                    }
                ]
            }
        },
        "/api/v1/cases/export": {
            "get": {
                "tags": [
                    "Cases"
                ],
                "summary": "Export cases",
                "responses": {
                    "200": {
                        "description": "File"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "description": "csv or pdf"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "description": "Status"
                    },
                    {
                        "name": "country",
                        "in": "query",
                        "type": "string",
                        "description": "Country"
                    },
                    {
                        "name": "violation_type",
                        "in": "query",
                        "type": "string",
                        "description": "Violation type"
                    },
                    {
                        "name": "occurred_from",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "occurred_to",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ]
            }
        },
        "/api/v1/cases/{id}": {
            "get": {
                "tags": [
                    "Cases"
                ],
                "summary": "Get a case",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            },
            "patch": {
                "tags": [
                    "Cases"
                ],
                "summary": "Update a case",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
                            "$ref": "#/definitions/UpdateCaseRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/cases/{id}/archive": {
            "post": {
                "tags": [
                    "Cases"
                ],
                "summary": "Archive a case",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
        "/api/v1/cases/{id}/history": {
            "get": {
                "tags": [
                    "Cases"
                ],
                "summary": "Case status history",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
        "/api/v1/evidence/{id}/link": {
            "get": {
                "tags": [
                    "Evidence"
                ],
                "summary": "Issue a signed download link",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
        "/api/v1/evidence/download": {
            "get": {
                "tags": [
                    "Evidence"
                ],
                "summary": "Download evidence by signed token",
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "401": {
                        "description": "Invalid or expired token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "token",
                        "in": "query",
                        "type": "string",
                        "description": "Signed token"
                    }
                ]
            }
        },
        "/api/v1/violation-types": {
            "get": {
                "tags": [
                    "Violation Types"
                ],
                "summary": "List violation types",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Violation Types"
                ],
                "summary": "Suggest a violation type",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SuggestViolationTypeRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/violation-types/{id}/review": {
            "put": {
                "tags": [
                    "Violation Types"
                ],
                "summary": "Approve or reject a suggestion",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
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
                            "$ref": "#/definitions/ReviewViolationTypeRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/analytics/violations": {
            "get": {
                "tags": [
                    "Analytics"
                ],
                "summary": "Incidents per violation type",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "country",
                        "in": "query",
                        "type": "string",
                        "description": "Country"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ]
            }
        },
        "/api/v1/analytics/timeline": {
            "get": {
                "tags": [
                    "Analytics"
                ],
                "summary": "Incidents over time",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "country",
                        "in": "query",
                        "type": "string",
                        "description": "Country"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "interval",
                        "in": "query",
                        "type": "string",
                        "description": "day, week, month or year"
                    }
                ]
            }
        },
        "/api/v1/analytics/geodata": {
            "get": {
                "tags": [
                    "Analytics"
                ],
                "summary": "Located incidents",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "country",
                        "in": "query",
                        "type": "string",
                        "description": "Country"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ]
            }
        },
        "/api/v1/analytics/system": {
            "get": {
                "tags": [
                    "Analytics"
                ],
                "summary": "System counters (admin)",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            },
            "required": [
                "username",
                "password"
            ]
        },
        "DecideReportRequest": {
            "type": "object",
            "properties": {
                "decision": {
                    "type": "string",
                    "enum": [
                        "approved",
                        "rejected"
                    ]
                },
                "comment": {
                    "type": "string"
                }
            },
            "required": [
                "decision"
            ]
        },
        "PromoteCaseRequest": {
            "type": "object",
            "properties": {
                "title_primary": {
                    "type": "string"
                },
                "title_secondary": {
                    "type": "string"
                },
                "priority": {
                    "type": "string",
                    "enum": [
                        "low",
                        "medium",
                        "high"
                    ]
                },
                "country_secondary": {
                    "type": "string"
                },
                "region_primary": {
                    "type": "string"
                },
                "region_secondary": {
                    "type": "string"
                }
            }
        },
        "CreateCaseRequest": {
            "type": "object",
            "properties": {
                "title_primary": {
                    "type": "string"
                },
                "title_secondary": {
                    "type": "string"
                },
                "description_primary": {
                    "type": "string"
                },
                "description_secondary": {
                    "type": "string"
                },
                "violation_types": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "priority": {
                    "type": "string",
                    "enum": [
                        "low",
                        "medium",
                        "high"
                    ]
                },
                "country_primary": {
                    "type": "string"
                },
                "country_secondary": {
                    "type": "string"
                },
                "region_primary": {
                    "type": "string"
                },
                "region_secondary": {
                    "type": "string"
                },
                "longitude": {
                    "type": "number"
                },
                "latitude": {
                    "type": "number"
                },
                "date_occurred": {
                    "type": "string"
                },
                "date_reported": {
                    "type": "string"
                }
            },
            "required": [
                "title_primary",
                "country_primary"
            ]
        },
        "UpdateCaseRequest": {
            "type": "object",
            "properties": {
                "title_primary": {
                    "type": "string"
                },
                "title_secondary": {
                    "type": "string"
                },
                "description_primary": {
                    "type": "string"
                },
                "description_secondary": {
                    "type": "string"
                },
                "violation_types": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "priority": {
                    "type": "string",
                    "enum": [
                        "low",
                        "medium",
                        "high"
                    ]
                },
                "country_primary": {
                    "type": "string"
                },
                "country_secondary": {
                    "type": "string"
                },
                "region_primary": {
                    "type": "string"
                },
                "region_secondary": {
                    "type": "string"
                },
                "longitude": {
                    "type": "number"
                },
                "latitude": {
                    "type": "number"
                },
                "date_occurred": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "new",
                        "under_investigation",
                        "resolved"
                    ]
                }
            }
        },
        "SuggestViolationTypeRequest": {
            "type": "object",
            "properties": {
                "name_primary": {
                    "type": "string"
                },
                "name_secondary": {
                    "type": "string"
                }
            },
            "required": [
                "name_primary"
            ]
        },
        "ReviewViolationTypeRequest": {
            "type": "object",
            "properties": {
                "approve": {
                    "type": "boolean"
                }
            },
            "required": [
                "approve"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
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
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
