package aider

import (
	"strconv"
)

// Command is the executable every compiled argument list starts with.
const Command = "aider"

// Compile turns opts plus the editable and read-only file lists into aider's
// argument list using the default registry.
func Compile(opts *Options, files, readOnly []string) []string {
	return DefaultRegistry().Compile(opts, files, readOnly)
}

// Compile renders argv: the command, then option tokens in registry order,
// then one --file per editable file and one --read per read-only file.
// opts is never modified.
func (r *Registry) Compile(opts *Options, files, readOnly []string) []string {
	args := []string{Command}
	args = append(args, r.OptionArgs(opts)...)
	for _, f := range files {
		args = append(args, "--file", f)
	}
	for _, f := range readOnly {
		args = append(args, "--read", f)
	}
	return args
}

// OptionArgs renders only the option tokens.
func (r *Registry) OptionArgs(opts *Options) []string {
	if opts == nil {
		return nil
	}
	var args []string
	for _, f := range r.fields {
		args = append(args, f.tokens(opts)...)
	}
	return args
}

func (f Field) tokens(opts *Options) []string {
	v := f.Get(opts)
	switch f.Kind {
	case KindPresence:
		if isTrue(v) {
			return []string{f.Flag}
		}
	case KindFixedValue:
		if isTrue(v) {
			return []string{f.Flag, f.Value}
		}
	case KindValued:
		if s, ok := scalar(v); ok {
			return []string{f.Flag, s}
		}
	case KindRepeated:
		list, _ := v.([]string)
		out := make([]string, 0, 2*len(list))
		for _, item := range list {
			if item == "" {
				continue
			}
			out = append(out, f.Flag, item)
		}
		return out
	case KindComposite:
		aliases, _ := v.([]ModelAlias)
		out := make([]string, 0, 2*len(aliases))
		for _, a := range aliases {
			out = append(out, f.Flag, a.String())
		}
		return out
	}
	return nil
}

func isTrue(v any) bool {
	b, ok := v.(*bool)
	return ok && b != nil && *b
}

// scalar stringifies a set, non-empty pointer value.
func scalar(v any) (string, bool) {
	switch p := v.(type) {
	case *string:
		if p == nil || *p == "" {
			return "", false
		}
		return *p, true
	case *int:
		if p == nil {
			return "", false
		}
		return strconv.Itoa(*p), true
	case *float64:
		if p == nil {
			return "", false
		}
		return strconv.FormatFloat(*p, 'f', -1, 64), true
	case *bool:
		if p == nil {
			return "", false
		}
		return strconv.FormatBool(*p), true
	}
	return "", false
}
