package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/camcap/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "CAMCAP_"

// strictSection is the TOML table whose keys must all map to an option.
// A typo there would otherwise silently capture with defaults.
const strictSection = "capture"

// ErrInvalidConfig wraps every value LoadConfig rejects.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadConfig fills opts with precedence CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI are not overwritten.
//
// Fields are mapped by their toml and env tags. A validate tag holds a
// comma-separated list of rules checked after all sources are applied:
//
//	duration  the string parses with time.ParseDuration and is not negative
//	positive  the int, or the duration, is greater than zero
//
// Values of the wrong type, unknown keys in the [capture] table and
// failed rules return an error wrapping ErrInvalidConfig.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changed := changedFlags(cmd)

	if path := configPath(v); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := applyTOML(v, t, data, changed); err != nil {
				return err
			}
		}
	}

	if err := applyEnv(v, t, changed); err != nil {
		return err
	}

	return validate(v, t)
}

// changedFlags returns the flags explicitly set on the command line.
func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changed[f.Name] = true
			}
		})
	}
	return changed
}

func configPath(v reflect.Value) string {
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
		return f.String()
	}
	return ""
}

func applyTOML(v reflect.Value, t reflect.Type, data []byte, changed map[string]bool) error {
	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}

	known := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		fieldType := t.Field(i)
		tomlPath := fieldType.Tag.Get("toml")
		if tomlPath == "" {
			continue
		}
		known[tomlPath] = true

		if changed[fieldNameToFlag(fieldType.Name)] {
			continue
		}
		value := getNestedValue(config, tomlPath)
		if value == nil {
			continue
		}
		if err := setFieldValue(v.Field(i), value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, tomlPath, err)
		}
	}

	if section, ok := config[strictSection].(map[string]any); ok {
		for key := range section {
			if !known[strictSection+"."+key] {
				return fmt.Errorf("%w: unknown key %s.%s", ErrInvalidConfig, strictSection, key)
			}
		}
	}
	return nil
}

func applyEnv(v reflect.Value, t reflect.Type, changed map[string]bool) error {
	for i := 0; i < t.NumField(); i++ {
		fieldType := t.Field(i)
		if changed[fieldNameToFlag(fieldType.Name)] {
			continue
		}

		envKey := fieldType.Tag.Get("env")
		if envKey == "" {
			continue
		}
		envValue := os.Getenv(EnvPrefix + envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValueFromString(v.Field(i), envValue); err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, envKey, err)
		}
	}
	return nil
}

// validate applies the validate tag rules to the final field values.
func validate(v reflect.Value, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		fieldType := t.Field(i)
		rules := fieldType.Tag.Get("validate")
		if rules == "" {
			continue
		}
		if err := checkRules(v.Field(i), rules); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, optionName(fieldType), err)
		}
	}
	return nil
}

func checkRules(field reflect.Value, rules string) error {
	for _, rule := range strings.Split(rules, ",") {
		switch strings.TrimSpace(rule) {
		case "duration":
			d, err := time.ParseDuration(field.String())
			if err != nil {
				return fmt.Errorf("%q is not a duration", field.String())
			}
			if d < 0 {
				return fmt.Errorf("%q is negative", field.String())
			}
		case "positive":
			switch field.Kind() {
			case reflect.Int:
				if field.Int() <= 0 {
					return fmt.Errorf("%d is not positive", field.Int())
				}
			case reflect.String:
				if d, err := time.ParseDuration(field.String()); err == nil && d <= 0 {
					return fmt.Errorf("%q is not positive", field.String())
				}
			}
		case "":
		default:
			return fmt.Errorf("unknown validate rule %q", rule)
		}
	}
	return nil
}

// optionName names a field the way the user set it: its TOML key when it
// has one, its flag otherwise.
func optionName(field reflect.StructField) string {
	if tomlPath := field.Tag.Get("toml"); tomlPath != "" {
		return tomlPath
	}
	return "--" + fieldNameToFlag(field.Name)
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Device" -> "device".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue sets a field from a decoded TOML value.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", value)
		}
		field.SetString(s)
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected a boolean, got %T", value)
		}
		field.SetBool(b)
	case reflect.Int:
		switch i := value.(type) {
		case int64:
			field.SetInt(i)
		case int:
			field.SetInt(int64(i))
		default:
			return fmt.Errorf("expected an integer, got %T", value)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected an array, got %T", value)
		}
		slice := make([]string, len(arr))
		for i, elem := range arr {
			s, ok := elem.(string)
			if !ok {
				return fmt.Errorf("element %d: expected a string, got %T", i, elem)
			}
			slice[i] = s
		}
		field.Set(reflect.ValueOf(slice))
	}
	return nil
}

// setFieldValueFromString sets a field from an environment variable.
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%q is not a boolean", value)
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
		field.SetInt(i)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Comma-separated
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
	return nil
}

// ReadLoggingConfig reads the [logging] table of configPath. Keys the file
// does not set are left empty so a reload can merge the result over the
// running settings with logging.Config.Merge. Keys other than level,
// format and output are module levels.
func ReadLoggingConfig(configPath string) (logging.Config, error) {
	cfg := logging.Config{Modules: make(map[string]string)}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	var raw struct {
		Logging map[string]string `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse logging config: %w", err)
	}

	for key, value := range raw.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		case "output":
			cfg.Output = value
		default:
			cfg.Modules[key] = value
		}
	}

	return cfg, nil
}
