package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// ResolveParams substitutes {$.path} tokens in task params with values looked
// up from the run input. Maps and lists are resolved recursively; non string
// values pass through untouched.
func ResolveParams(input map[string]any, params map[string]any) map[string]any {
	output := make(map[string]any)
	resolveParams(input, params, output)
	return output
}

func resolveParams(input map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		switch val := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			output[k] = out
			resolveParams(input, val, out)
		case string:
			output[k] = resolveString(input, val)
		case []any:
			output[k] = resolveList(input, val)
		default:
			output[k] = v
		}
	}
}

func resolveList(input map[string]any, list []any) []any {
	var output []any
	for _, v := range list {
		switch val := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			resolveParams(input, val, out)
			output = append(output, out)
		case string:
			output = append(output, resolveString(input, val))
		case []any:
			output = append(output, resolveList(input, val)...)
		default:
			output = append(output, v)
		}
	}
	return output
}

func resolveString(input map[string]any, s string) string {
	tokens := tokenPattern.FindAllString(s, -1)
	for _, token := range tokens {
		expr := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		if !strings.HasPrefix(expr, "$") {
			continue
		}
		value, err := jsonpath.JsonPathLookup(input, expr)
		if err != nil {
			continue
		}
		s = strings.ReplaceAll(s, token, fmt.Sprintf("%v", value))
	}
	return s
}
