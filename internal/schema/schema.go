// Package schema carries the built-in default detail schemas for projects and
// activities, and a conformance check for detail documents.
//
// A detail schema is a JSON-shaped map of field name to a field spec:
// {type, label, required, order, options?, default?, multiline?}. Tenants
// carry their own copies, default-filled from these at creation; projects and
// activities snapshot the schema they were created under.
package schema

import (
	"fmt"
	"sort"
)

// Field types understood by the mobile client's dynamic detail forms.
const (
	TypeString      = "string"
	TypeStringArray = "string[]"
	TypeNumber      = "number"
	TypeDate        = "date"
	TypeEnum        = "enum"
	TypeUser        = "user"
)

// DefaultProjectDetailsSchema returns the built-in schema for project details
func DefaultProjectDetailsSchema() map[string]interface{} {
	return map[string]interface{}{
		"description": map[string]interface{}{
			"type":      TypeString,
			"label":     "Description",
			"multiline": true,
			"required":  true,
			"order":     1,
		},
		"ownerUserId": map[string]interface{}{
			"type":     TypeUser,
			"label":    "Owner",
			"required": false,
			"order":    2,
		},
		"startDate": map[string]interface{}{
			"type":     TypeDate,
			"label":    "Start Date",
			"required": false,
			"order":    3,
		},
		"expectedCompletionDate": map[string]interface{}{
			"type":     TypeDate,
			"label":    "Expected Completion Date",
			"required": false,
			"order":    4,
		},
		"status": map[string]interface{}{
			"type":  TypeEnum,
			"label": "Status",
			"options": []interface{}{
				map[string]interface{}{"value": "planned", "label": "Planned", "order": 1},
				map[string]interface{}{"value": "in_progress", "label": "In Progress", "order": 2},
				map[string]interface{}{"value": "on_hold", "label": "On Hold", "order": 3},
				map[string]interface{}{"value": "completed", "label": "Completed", "order": 4},
			},
			"required": true,
			"default":  "planned",
			"order":    5,
		},
		"tags": map[string]interface{}{
			"type":     TypeStringArray,
			"label":    "Tags",
			"required": false,
			"order":    6,
		},
	}
}

// DefaultActivityDetailsSchema returns the built-in schema for activity details
func DefaultActivityDetailsSchema() map[string]interface{} {
	return map[string]interface{}{
		"description": map[string]interface{}{
			"type":      TypeString,
			"label":     "Description",
			"multiline": true,
			"required":  true,
			"order":     1,
		},
		"assigneeUserId": map[string]interface{}{
			"type":     TypeUser,
			"label":    "Assignee",
			"required": false,
			"order":    2,
		},
		"status": map[string]interface{}{
			"type":  TypeEnum,
			"label": "Status",
			"options": []interface{}{
				map[string]interface{}{"value": "todo", "label": "To Do", "order": 1},
				map[string]interface{}{"value": "in_progress", "label": "In Progress", "order": 2},
				map[string]interface{}{"value": "blocked", "label": "Blocked", "order": 3},
				map[string]interface{}{"value": "done", "label": "Done", "order": 4},
			},
			"required": true,
			"default":  "todo",
			"order":    3,
		},
		"dueDate": map[string]interface{}{
			"type":     TypeDate,
			"label":    "Due Date",
			"required": false,
			"order":    4,
		},
		"estimateHours": map[string]interface{}{
			"type":     TypeNumber,
			"label":    "Estimate (hours)",
			"required": false,
			"order":    5,
		},
	}
}

// Validate checks a details document against a detail schema: required fields
// must be present and non-nil, enum values must be among the declared options,
// and values must match the declared field type. Unknown detail keys are
// rejected so typos don't silently persist.
func Validate(detailsSchema, details map[string]interface{}) error {
	for _, name := range sortedKeys(detailsSchema) {
		spec, ok := detailsSchema[name].(map[string]interface{})
		if !ok {
			return fmt.Errorf("schema field %q: spec is not an object", name)
		}

		value, present := details[name]
		required, _ := spec["required"].(bool)
		if !present || value == nil {
			if required {
				return fmt.Errorf("field %q is required", name)
			}
			continue
		}

		if err := checkType(name, spec, value); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(details) {
		if _, ok := detailsSchema[name]; !ok {
			return fmt.Errorf("field %q is not part of the schema", name)
		}
	}

	return nil
}

func checkType(name string, spec map[string]interface{}, value interface{}) error {
	fieldType, _ := spec["type"].(string)

	switch fieldType {
	case TypeString, TypeDate, TypeUser:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %q must be a string", name)
		}
	case TypeNumber:
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("field %q must be a number", name)
		}
	case TypeStringArray:
		items, ok := value.([]interface{})
		if !ok {
			if _, isStrings := value.([]string); isStrings {
				return nil
			}
			return fmt.Errorf("field %q must be an array of strings", name)
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("field %q must contain only strings", name)
			}
		}
	case TypeEnum:
		selected, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string", name)
		}
		options, _ := spec["options"].([]interface{})
		for _, raw := range options {
			option, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if optionValue, _ := option["value"].(string); optionValue == selected {
				return nil
			}
		}
		return fmt.Errorf("field %q has invalid value %q", name, selected)
	default:
		return fmt.Errorf("schema field %q has unknown type %q", name, fieldType)
	}

	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
