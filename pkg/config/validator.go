package config

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"
)

// RequiredFields validates that required fields are not empty.
// Field paths use dot notation for nested structs (e.g. "Storage.DSN").
func RequiredFields(fields ...string) Validator {
	return ValidatorFunc(func(config interface{}) error {
		val, err := structValue(config)
		if err != nil {
			return err
		}

		missing := make([]string, 0)
		for _, fieldName := range fields {
			fieldVal := getNestedField(val, fieldName)
			if !fieldVal.IsValid() {
				return fmt.Errorf("field %s not found in config struct", fieldName)
			}
			if fieldVal.IsZero() {
				missing = append(missing, fieldName)
			}
		}

		if len(missing) > 0 {
			return fmt.Errorf("required fields are missing: %s", strings.Join(missing, ", "))
		}
		return nil
	})
}

// RangeValidator validates that a numeric field is within [min, max]
func RangeValidator(fieldName string, min, max float64) Validator {
	return ValidatorFunc(func(config interface{}) error {
		val, err := structValue(config)
		if err != nil {
			return err
		}

		fieldVal := getNestedField(val, fieldName)
		if !fieldVal.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}

		var numVal float64
		switch fieldVal.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			numVal = float64(fieldVal.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			numVal = float64(fieldVal.Uint())
		case reflect.Float32, reflect.Float64:
			numVal = fieldVal.Float()
		default:
			return fmt.Errorf("field %s is not numeric", fieldName)
		}

		if numVal < min || numVal > max {
			return fmt.Errorf("field %s value %v is out of range [%v, %v]", fieldName, numVal, min, max)
		}
		return nil
	})
}

// StringLengthValidator validates the character length of a string field
func StringLengthValidator(fieldName string, minLen, maxLen int) Validator {
	return ValidatorFunc(func(config interface{}) error {
		val, err := structValue(config)
		if err != nil {
			return err
		}

		fieldVal := getNestedField(val, fieldName)
		if !fieldVal.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}
		if fieldVal.Kind() != reflect.String {
			return fmt.Errorf("field %s is not a string", fieldName)
		}

		length := utf8.RuneCountInString(fieldVal.String())
		if length < minLen || length > maxLen {
			return fmt.Errorf("field %s length %d is out of range [%d, %d]", fieldName, length, minLen, maxLen)
		}
		return nil
	})
}

// OneOfValidator validates that a field value is one of the allowed values
func OneOfValidator(fieldName string, allowedValues ...interface{}) Validator {
	return ValidatorFunc(func(config interface{}) error {
		val, err := structValue(config)
		if err != nil {
			return err
		}

		fieldVal := getNestedField(val, fieldName)
		if !fieldVal.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}

		fieldInterface := fieldVal.Interface()
		for _, allowed := range allowedValues {
			if reflect.DeepEqual(fieldInterface, allowed) {
				return nil
			}
		}

		return fmt.Errorf("field %s value %v is not one of allowed values: %v", fieldName, fieldInterface, allowedValues)
	})
}

func structValue(config interface{}) (reflect.Value, error) {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("config must be a struct")
	}
	return val, nil
}

// getNestedField gets a field value, supporting nested paths with dot notation
func getNestedField(val reflect.Value, fieldPath string) reflect.Value {
	current := val
	for _, part := range strings.Split(fieldPath, ".") {
		if current.Kind() == reflect.Ptr {
			if current.IsNil() {
				return reflect.Value{}
			}
			current = current.Elem()
		}
		if current.Kind() != reflect.Struct {
			return reflect.Value{}
		}
		current = current.FieldByName(part)
		if !current.IsValid() {
			return reflect.Value{}
		}
	}
	return current
}
