package markup

import (
	"regexp"
	"strconv"
	"strings"
)

// Style is an inline CSS declaration list ("key:value;key:value") kept in
// source order so rewritten attributes read like the converter's own output.
type Style struct {
	keys   []string
	values map[string]string
}

// ParseStyle splits a style attribute into ordered declarations. Keys are
// lower-cased and trimmed; a repeated key keeps its first position and its
// last value. Declarations without a colon are dropped.
func ParseStyle(s string) *Style {
	st := &Style{values: make(map[string]string)}
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		st.Set(k, strings.TrimSpace(v))
	}
	return st
}

// Get returns the value for key and whether it was declared.
func (s *Style) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set adds or replaces a declaration. New keys go to the end.
func (s *Style) Set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Delete removes a declaration if present.
func (s *Style) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of declarations.
func (s *Style) Len() int {
	return len(s.keys)
}

// Keys returns the declared keys in order.
func (s *Style) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

var intToken = regexp.MustCompile(`\d+`)

// Int returns the first run of digits in the value of key ("108px" -> 108,
// "12.5px" -> 12, "-3px" -> 3). ok is false when the key is missing or holds
// no digits.
func (s *Style) Int(key string) (n int, ok bool) {
	v, found := s.values[key]
	if !found {
		return 0, false
	}
	tok := intToken.FindString(v)
	if tok == "" {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String renders the declarations as "k:v;k:v".
func (s *Style) String() string {
	var sb strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(s.values[k])
	}
	return sb.String()
}
