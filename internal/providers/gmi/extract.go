package gmi

import "encoding/json"

// resultPath addresses one candidate location inside a completion payload.
// Segments name object keys; a "[]" segment steps into the first element of
// an array. Paths are probed in order and the first non-empty string wins.
type resultPath []string

// urlPaths covers the response shapes GMI models have been observed to
// return. New models tend to add yet another nesting, so the chain is data
// rather than code.
var urlPaths = []resultPath{
	{"result", "images", "[]", "url"},
	{"result", "image_url"},
	{"output", "images", "[]", "url"},
	{"output", "url"},
	{"images", "[]", "url"},
	{"url"},
}

// b64Paths is the fallback chain for models that inline the image instead of
// hosting it.
var b64Paths = []resultPath{
	{"result", "images", "[]", "b64_json"},
	{"output", "images", "[]", "b64_json"},
}

// extractImageURL probes the payload for a hosted URL first, then for inline
// base64 data which is wrapped into a data URL. Returns "" when nothing
// matched.
func extractImageURL(raw json.RawMessage, outputFormat string) string {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	for _, path := range urlPaths {
		if url := probe(doc, path); url != "" {
			return url
		}
	}
	for _, path := range b64Paths {
		if b64 := probe(doc, path); b64 != "" {
			if outputFormat == "" {
				outputFormat = "png"
			}
			return "data:image/" + outputFormat + ";base64," + b64
		}
	}
	return ""
}

func probe(doc map[string]any, path resultPath) string {
	var node any = doc
	for _, segment := range path {
		if segment == "[]" {
			list, ok := node.([]any)
			if !ok || len(list) == 0 {
				return ""
			}
			node = list[0]
			continue
		}
		obj, ok := node.(map[string]any)
		if !ok {
			return ""
		}
		node, ok = obj[segment]
		if !ok {
			return ""
		}
	}
	value, _ := node.(string)
	return value
}
