package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Presensi API",
        "description": "Attendance recording and reconciliation engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Tokens", "description": "Check-in token issuance"},
        {"name": "Attendance", "description": "Scan, manual, and bulk recording"},
        {"name": "Workflow", "description": "Absence requests and leave permissions"},
        {"name": "Reports", "description": "Slot vectors and summaries"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/tokens": {
            "post": {
                "tags": ["Tokens"],
                "summary": "Issue a check-in token bound to a schedule period",
                "responses": {
                    "201": {"description": "Token issued"},
                    "404": {"description": "Schedule not found"}
                }
            }
        },
        "/tokens/{id}": {
            "delete": {
                "tags": ["Tokens"],
                "summary": "Invalidate a token (idempotent)",
                "responses": {
                    "204": {"description": "Invalidated"}
                }
            }
        },
        "/attendance/scan": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance by scanning a check-in token",
                "responses": {
                    "201": {"description": "Recorded"},
                    "404": {"description": "Token not found"},
                    "410": {"description": "Token expired or inactive"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a single manual attendance entry",
                "responses": {
                    "201": {"description": "Recorded"},
                    "400": {"description": "Invalid date or missing reason"}
                }
            }
        },
        "/attendance/bulk": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record many entries with per-item results",
                "responses": {
                    "200": {"description": "Per-item results"}
                }
            }
        },
        "/attendance/slots": {
            "get": {
                "tags": ["Reports"],
                "summary": "Daily slot vector for a student or teacher",
                "responses": {
                    "200": {"description": "Slot vector"}
                }
            }
        },
        "/attendance/summary": {
            "get": {
                "tags": ["Reports"],
                "summary": "Counts, rate, and absence streak for a window",
                "responses": {
                    "200": {"description": "Summary"}
                }
            }
        },
        "/absence-requests": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Submit an absence request",
                "responses": {
                    "201": {"description": "Submitted"}
                }
            },
            "get": {
                "tags": ["Workflow"],
                "summary": "List absence requests",
                "responses": {
                    "200": {"description": "Requests"}
                }
            }
        },
        "/absence-requests/{id}/approve": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Approve a pending request",
                "responses": {
                    "200": {"description": "Approved"},
                    "409": {"description": "Already resolved"}
                }
            }
        },
        "/absence-requests/{id}/reject": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Reject a pending request with a reason",
                "responses": {
                    "200": {"description": "Rejected"},
                    "409": {"description": "Already resolved"}
                }
            }
        },
        "/leave-permissions": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Submit a leave permission",
                "responses": {
                    "201": {"description": "Submitted"}
                }
            },
            "get": {
                "tags": ["Workflow"],
                "summary": "List leave permissions",
                "responses": {
                    "200": {"description": "Permissions"}
                }
            }
        }
    },
    "definitions": {
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
                "pagination": {"type": "object"},
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
