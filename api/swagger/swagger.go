package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Internship Portal API",
        "description": "Application review workflow, evaluations and final result release",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and current identity"},
        {"name": "Applications", "description": "Student applications and their review workflow"},
        {"name": "FinalEvaluation", "description": "Evaluation intake and one-time result release"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "security": [],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List applications visible to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "job_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Applications"],
                "summary": "Submit an internship application",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitApplicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or duplicate application"},
                    "404": {"description": "Job posting not found"}
                }
            }
        },
        "/applications/{id}": {
            "get": {
                "tags": ["Applications"],
                "summary": "Get an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/applications/{id}/supervisor-review": {
            "put": {
                "tags": ["Applications"],
                "summary": "Approve or reject as the assigned supervisor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid state or missing feedback"},
                    "403": {"description": "Not the assigned supervisor"}
                }
            }
        },
        "/applications/{id}/resubmit": {
            "patch": {
                "tags": ["Applications"],
                "summary": "Resubmit a rejected application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ResubmitApplicationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Application is not awaiting resubmission"}
                }
            }
        },
        "/applications/{id}/supervisor/approve": {
            "patch": {
                "tags": ["Applications"],
                "summary": "Approve a resubmitted application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid state"}
                }
            }
        },
        "/applications/{id}/supervisor": {
            "patch": {
                "tags": ["Applications"],
                "summary": "Assign the academic supervisor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignSupervisorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown supervisor or invalid state"}
                }
            }
        },
        "/applications/{id}/company-review": {
            "put": {
                "tags": ["Applications"],
                "summary": "Open, accept or reject as the posting company",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Supervisor approval missing or application closed"}
                }
            }
        },
        "/applications/{id}/interview": {
            "patch": {
                "tags": ["Applications"],
                "summary": "Schedule an interview",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleInterviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid state or time in the past"}
                }
            }
        },
        "/final-evaluation/supervisor/final-evaluations": {
            "get": {
                "tags": ["FinalEvaluation"],
                "summary": "List hired interns by release state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/final-evaluation/supervisor/final-evaluations/export": {
            "get": {
                "tags": ["FinalEvaluation"],
                "summary": "Export the release list",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/final-evaluation/supervisor/evaluations": {
            "post": {
                "tags": ["FinalEvaluation"],
                "summary": "Submit a supervisor evaluation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SupervisorEvaluationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or duplicate evaluation"}
                }
            }
        },
        "/final-evaluation/supervisor/send-result/{applicationId}": {
            "post": {
                "tags": ["FinalEvaluation"],
                "summary": "Release a final result to the student",
                "parameters": [
                    {"name": "applicationId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Already sent"},
                    "403": {"description": "Not the assigned supervisor"},
                    "404": {"description": "Evaluations missing"}
                }
            }
        },
        "/final-evaluation/supervisor/view-sent-result/{applicationId}": {
            "get": {
                "tags": ["FinalEvaluation"],
                "summary": "View a released result",
                "parameters": [
                    {"name": "applicationId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Not released yet"}
                }
            }
        },
        "/final-evaluation/company/evaluations": {
            "post": {
                "tags": ["FinalEvaluation"],
                "summary": "Submit a company evaluation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompanyEvaluationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or duplicate evaluation"}
                }
            }
        },
        "/final-evaluation/student/result": {
            "get": {
                "tags": ["FinalEvaluation"],
                "summary": "Student final result",
                "description": "Returns marks only after release; otherwise a pending status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubmitApplicationRequest": {
            "type": "object",
            "required": ["jobId", "coverLetter"],
            "properties": {
                "jobId": {"type": "string"},
                "coverLetter": {"type": "string"},
                "resumeUrl": {"type": "string"},
                "supervisorId": {"type": "string"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["approve", "reject", "open", "accept"]},
                "feedback": {"type": "string"}
            }
        },
        "ResubmitApplicationRequest": {
            "type": "object",
            "properties": {
                "coverLetter": {"type": "string"},
                "resumeUrl": {"type": "string"}
            }
        },
        "AssignSupervisorRequest": {
            "type": "object",
            "required": ["supervisorId"],
            "properties": {
                "supervisorId": {"type": "string"}
            }
        },
        "ScheduleInterviewRequest": {
            "type": "object",
            "required": ["scheduledAt", "mode", "location"],
            "properties": {
                "scheduledAt": {"type": "string", "format": "date-time"},
                "mode": {"type": "string", "enum": ["onsite", "online"]},
                "location": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "SupervisorEvaluationRequest": {
            "type": "object",
            "required": ["applicationId", "technicalSkills", "problemSolving", "communication", "teamwork", "professionalism", "initiative"],
            "properties": {
                "applicationId": {"type": "string"},
                "technicalSkills": {"type": "integer", "minimum": 1, "maximum": 10},
                "problemSolving": {"type": "integer", "minimum": 1, "maximum": 10},
                "communication": {"type": "integer", "minimum": 1, "maximum": 10},
                "teamwork": {"type": "integer", "minimum": 1, "maximum": 10},
                "professionalism": {"type": "integer", "minimum": 1, "maximum": 10},
                "initiative": {"type": "integer", "minimum": 1, "maximum": 10},
                "comments": {"type": "string"}
            }
        },
        "CompanyCriterion": {
            "type": "object",
            "required": ["name", "score"],
            "properties": {
                "name": {"type": "string"},
                "score": {"type": "number"},
                "maxScore": {"type": "number"}
            }
        },
        "CompanyEvaluationRequest": {
            "type": "object",
            "required": ["applicationId", "criteria"],
            "properties": {
                "applicationId": {"type": "string"},
                "criteria": {"type": "array", "items": {"$ref": "#/definitions/CompanyCriterion"}},
                "maxMarks": {"type": "number"},
                "comments": {"type": "string"}
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
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "message": {"type": "string"},
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
