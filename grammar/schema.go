package grammar

// jsonSchema is the JSON Schema (Draft 2020-12) that a serialized
// Grammar document must satisfy before it is decoded into a Grammar
// value. It encodes the closed Typ and PatternKind enums so that a
// malformed prop or pattern is rejected with a precise,
// schema-validator-produced message. Actions are only checked to be
// objects: an unknown action or call kind is rejected later, during
// decoding, and Capture and Base values are not checked at all.
const jsonSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://lowgen.dev/schema/grammar.json",
  "type": "object",
  "required": ["schemaVersion", "storage", "nodes"],
  "properties": {
    "schemaVersion": {"type": "string", "pattern": "^v[0-9]+\\.[0-9]+\\.[0-9]+$"},
    "storage": {
      "type": "object",
      "required": ["props", "callbacks"],
      "properties": {
        "props": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "typ"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "typ": {"enum": ["u8", "char", "u16", "u32", "u64", "span"]}
            }
          }
        },
        "callbacks": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "argProps", "isSpan"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "argProps": {"type": "array", "items": {"type": "integer", "minimum": 0}},
              "isSpan": {"type": "boolean"}
            }
          }
        }
      }
    },
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "cases"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "cases": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["pattern", "action"],
              "properties": {
                "pattern": {
                  "type": "object",
                  "required": ["kind"],
                  "properties": {
                    "kind": {"enum": ["byte", "range", "set", "literal", "otherwise", "consume"]},
                    "set": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 255}},
                    "lenProp": {"type": "integer", "minimum": 0}
                  }
                },
                "action": {"type": "object"}
              }
            }
          }
        }
      }
    }
  }
}`

// minSupportedSchemaVersion is the lowest schemaVersion this build of
// the lowering pipeline accepts. Bumped on breaking document changes.
const minSupportedSchemaVersion = "v1.0.0"
