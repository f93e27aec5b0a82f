package env

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type options struct {
	keepZero bool
}

type Option func(*options)

// WithZeroValues also writes fields that hold their zero value, so that the
// output lists every known key.
func WithZeroValues() Option {
	return func(o *options) { o.keepZero = true }
}

var durationType = reflect.TypeOf(time.Duration(0))

// MarshalEnv reflects over the struct and creates .env content from tags.
// c must be a pointer to a struct.
func MarshalEnv(c any, opts ...Option) (string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return "", fmt.Errorf("env: expected pointer to struct, got %T", c)
	}
	v = v.Elem()
	t := v.Type()

	var lines []string
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("env")

		// Skip fields without env tag or unexported fields
		if tag == "" || !field.IsExported() {
			continue
		}

		// Parse tag: "KEY,required,notEmpty" or "KEY"
		key := strings.Split(tag, ",")[0]
		if key == "" {
			continue
		}

		val := v.Field(i)
		if !o.keepZero && isZeroValue(val) {
			continue
		}

		strVal, err := formatValue(val)
		if err != nil {
			return "", fmt.Errorf("env: field %s: %w", field.Name, err)
		}
		lines = append(lines, fmt.Sprintf("%s=%s", key, quote(strVal)))
	}

	result := strings.Join(lines, "\n")
	if result != "" {
		result += "\n"
	}
	return result, nil
}

// quote wraps values that godotenv would otherwise split or trim.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " #\"'\n\t=") {
		return strconv.Quote(s)
	}
	return s
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

func formatValue(v reflect.Value) (string, error) {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String(), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	default:
		return "", fmt.Errorf("unsupported kind %s", v.Kind())
	}
}
