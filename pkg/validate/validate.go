// Package validate provides struct-tag validation for request input.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	numeric             any number
//	integer             whole number
//	min=N               string: min char length | number: min value
//	max=N               string: max char length | number: max value
//	gt=N                number > N
//	gte=N               number >= N
//	lt=N                number < N
//	lte=N               number <= N
//	in=a,b,c            value must be one of the listed items
//
// Example:
//
//	type Input struct {
//	    Address string `json:"shipping_address" validate:"required,min=10"`
//	    Status  string `json:"status"           validate:"required,in=pending,confirmed,shipped,delivered,cancelled"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonFieldName(field)
		rules := strings.Split(tag, ",")

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			rule = strings.TrimSpace(rule)
			if rule == "" || rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value, rules); msg != "" {
				errs[name] = msg
				break // first failing rule per field
			}
			if strings.HasPrefix(rule, "in=") {
				break // "in" consumes the remainder of the tag
			}
		}
	}

	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func applyRule(rule, field string, v reflect.Value, allRules []string) string {
	raw := fmt.Sprintf("%v", v.Interface())
	key, param, _ := strings.Cut(rule, "=")

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}

	case "email":
		if !emailPattern.MatchString(raw) {
			return fmt.Sprintf("The %s field must be a valid email address.", field)
		}

	case "numeric":
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Sprintf("The %s field must be a number.", field)
		}

	case "integer":
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}

	case "min":
		if !compareOK(v, raw, param, func(a, b float64) bool { return a >= b }) {
			return fmt.Sprintf("The %s field must be at least %s.", field, param)
		}

	case "max":
		if !compareOK(v, raw, param, func(a, b float64) bool { return a <= b }) {
			return fmt.Sprintf("The %s field may not be greater than %s.", field, param)
		}

	case "gt":
		if !numberOK(raw, param, func(a, b float64) bool { return a > b }) {
			return fmt.Sprintf("The %s field must be greater than %s.", field, param)
		}

	case "gte":
		if !numberOK(raw, param, func(a, b float64) bool { return a >= b }) {
			return fmt.Sprintf("The %s field must be at least %s.", field, param)
		}

	case "lt":
		if !numberOK(raw, param, func(a, b float64) bool { return a < b }) {
			return fmt.Sprintf("The %s field must be less than %s.", field, param)
		}

	case "lte":
		if !numberOK(raw, param, func(a, b float64) bool { return a <= b }) {
			return fmt.Sprintf("The %s field may not be greater than %s.", field, param)
		}

	case "in":
		// The listed items may themselves contain commas split into later
		// "rules"; reassemble them.
		allowed := gatherInList(param, allRules)
		for _, item := range allowed {
			if raw == item {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}

	return ""
}

// compareOK applies min/max: numeric comparison for numbers, length
// comparison for strings.
func compareOK(v reflect.Value, raw, param string, cmp func(a, b float64) bool) bool {
	bound, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return cmp(float64(len(v.String())), bound)
	default:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		return cmp(n, bound)
	}
}

func numberOK(raw, param string, cmp func(a, b float64) bool) bool {
	n, err1 := strconv.ParseFloat(raw, 64)
	bound, err2 := strconv.ParseFloat(param, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	return cmp(n, bound)
}

// gatherInList rebuilds the full "in" list: the tag "in=a,b,c" is split on
// commas with the other rules, so the items after the first live in allRules.
func gatherInList(first string, allRules []string) []string {
	items := []string{first}
	seen := false
	for _, r := range allRules {
		if strings.HasPrefix(r, "in=") {
			seen = true
			continue
		}
		if seen {
			items = append(items, strings.TrimSpace(r))
		}
	}
	return items
}

func hasRule(rules []string, name string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == name {
			return true
		}
	}
	return false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}
