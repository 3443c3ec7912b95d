// internal/gateway/schema.go
package gateway

// taskRequestSchema is the inbound contract. Validation happens against the
// raw body so that a malformed request is rejected with field-level detail
// before any work is scheduled.
const taskRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["email", "secret", "task", "round", "nonce", "brief", "checks", "evaluation_url", "attachments"],
  "properties": {
    "email": {"type": "string", "minLength": 1},
    "secret": {"type": "string", "minLength": 1},
    "task": {"type": "string", "minLength": 1},
    "round": {"type": "integer", "minimum": 1},
    "nonce": {"type": "string", "minLength": 1},
    "brief": {"type": "string", "minLength": 1},
    "checks": {
      "type": "array",
      "items": {"type": "string"}
    },
    "evaluation_url": {"type": "string", "format": "uri"},
    "attachments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "url"],
        "properties": {
          "name": {"type": "string"},
          "url": {"type": "string"}
        }
      }
    }
  }
}`
