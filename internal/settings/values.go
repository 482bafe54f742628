package settings

import "encoding/base64"

// Typed accessors. Missing keys and malformed values return the supplied
// default instead of an error: corrupted session state must never prevent
// the application from starting.

func (s *Store) GetString(path, def string) string {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	if str, ok := v.(string); ok {
		return str
	}
	return def
}

func (s *Store) GetInt(path string, def int) int {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func (s *Store) GetBool(path string, def bool) bool {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func (s *Store) GetFloat(path string, def float64) float64 {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	return toFloat(v, def)
}

func (s *Store) GetStringList(path string) []string {
	v, ok := s.Get(path)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...)
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			} else {
				out = append(out, "")
			}
		}
		return out
	}
	return nil
}

func (s *Store) GetFloatList(path string) []float64 {
	v, ok := s.Get(path)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []float64:
		return append([]float64{}, list...)
	case []interface{}:
		out := make([]float64, 0, len(list))
		for _, item := range list {
			out = append(out, toFloat(item, 0))
		}
		return out
	}
	return nil
}

func (s *Store) GetIntList(path string) []int {
	v, ok := s.Get(path)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []int:
		return append([]int{}, list...)
	case []interface{}:
		out := make([]int, 0, len(list))
		for _, item := range list {
			out = append(out, int(toFloat(item, 0)))
		}
		return out
	}
	return nil
}

// GetBlob decodes a base64-encoded binary payload written by Set.
func (s *Store) GetBlob(path string) []byte {
	v, ok := s.Get(path)
	if !ok {
		return nil
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil
	}
	return b
}

func toFloat(v interface{}, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}
