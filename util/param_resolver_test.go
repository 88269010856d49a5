package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveParams(t *testing.T) {
	input := map[string]any{
		"day":    "2024-01-01",
		"region": "emea",
		"window": map[string]any{"hours": 24},
	}

	for scenario, fn := range map[string]func(t *testing.T){
		"test simple token": func(t *testing.T) {
			out := ResolveParams(input, map[string]any{
				"select": "SELECT * FROM orders WHERE day = '{$.day}'",
			})
			require.Equal(t, "SELECT * FROM orders WHERE day = '2024-01-01'", out["select"])
		},
		"test multiple tokens in one string": func(t *testing.T) {
			out := ResolveParams(input, map[string]any{
				"key": "{$.region}/{$.day}.json",
			})
			require.Equal(t, "emea/2024-01-01.json", out["key"])
		},
		"test nested path": func(t *testing.T) {
			out := ResolveParams(input, map[string]any{
				"lookback": "{$.window.hours}",
			})
			require.Equal(t, "24", out["lookback"])
		},
		"test nested params": func(t *testing.T) {
			out := ResolveParams(input, map[string]any{
				"filter": map[string]any{"region": "{$.region}"},
				"tags":   []any{"{$.day}", "static"},
			})
			require.Equal(t, map[string]any{"region": "emea"}, out["filter"])
			require.Equal(t, []any{"2024-01-01", "static"}, out["tags"])
		},
		"test unresolved path left alone": func(t *testing.T) {
			out := ResolveParams(input, map[string]any{
				"select": "SELECT {$.missing} FROM orders",
			})
			require.Equal(t, "SELECT {$.missing} FROM orders", out["select"])
		},
		"test non jsonpath braces untouched": func(t *testing.T) {
			out := ResolveParams(input, map[string]any{
				"tpl": "literal {braces} stay",
			})
			require.Equal(t, "literal {braces} stay", out["tpl"])
		},
		"test non string values pass through": func(t *testing.T) {
			out := ResolveParams(input, map[string]any{
				"limit":  100,
				"dryRun": false,
			})
			require.Equal(t, 100, out["limit"])
			require.Equal(t, false, out["dryRun"])
		},
	} {
		t.Run(scenario, fn)
	}
}

func TestCopyMap(t *testing.T) {
	original := map[string]any{
		"day": "2024-01-01",
		"window": map[string]any{
			"hours": 24,
		},
		"tags": []any{"a", "b"},
	}
	snapshot := CopyMap(original)
	require.Equal(t, original, snapshot)

	snapshot["day"] = "mutated"
	snapshot["window"].(map[string]any)["hours"] = 1
	require.Equal(t, "2024-01-01", original["day"])
	require.Equal(t, 24, original["window"].(map[string]any)["hours"])

	require.Empty(t, CopyMap(nil))
	require.NotNil(t, CopyMap(nil))
}
