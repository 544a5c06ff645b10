// Package config loads YAML configuration files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path into out, expanding ${VAR} references
// first and then applying `env:"NAME"` struct tag overrides.
func Load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return ApplyEnv(out)
}

// LoadOrDefault behaves like Load but leaves out untouched (apart from env
// overrides) when path does not exist.
func LoadOrDefault(path string, out any) error {
	if path == "" {
		return ApplyEnv(out)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ApplyEnv(out)
	}
	return Load(path, out)
}

// ApplyEnv walks the struct pointed to by v and overwrites every field that
// carries an `env` tag whose variable is set.
func ApplyEnv(v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("apply env: expected pointer to struct, got %T", v)
	}
	return applyEnv(val.Elem())
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyEnv(val reflect.Value) error {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := val.Field(i)
		if !field.IsExported() {
			continue
		}

		if fv.Kind() == reflect.Struct {
			if err := applyEnv(fv); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
	}
	return nil
}

func setField(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64, reflect.Int32:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64, reflect.Float32:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", fv.Type())
		}
		parts := SplitList(raw)
		s := reflect.MakeSlice(fv.Type(), len(parts), len(parts))
		for i, p := range parts {
			s.Index(i).SetString(p)
		}
		fv.Set(s)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
