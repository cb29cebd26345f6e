package docstore

import "time"

// resolve copies data, replacing ServerTimestamp sentinels with now and
// normalizing times to UTC. Nested objects are resolved recursively.
func resolve(data Fields, now time.Time) Fields {
	out := make(Fields, len(data))
	for k, v := range data {
		out[k] = resolveValue(v, now)
	}
	return out
}

func resolveValue(v any, now time.Time) any {
	switch x := v.(type) {
	case sentinel:
		if x == ServerTimestamp {
			return now
		}
		return x
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case Fields:
		return resolve(x, now)
	case map[string]any:
		return map[string]any(resolve(Fields(x), now))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = resolveValue(e, now)
		}
		return out
	default:
		return v
	}
}

// mergeFields merges src into dst. Objects present on both sides are merged
// key by key; any other value in src replaces the one in dst.
func mergeFields(dst, src Fields) Fields {
	if dst == nil {
		dst = Fields{}
	}
	for k, v := range src {
		srcMap, ok := asMap(v)
		if !ok {
			dst[k] = v
			continue
		}
		dstMap, ok := asMap(dst[k])
		if !ok {
			dst[k] = v
			continue
		}
		dst[k] = map[string]any(mergeFields(dstMap, srcMap))
	}
	return dst
}

func asMap(v any) (Fields, bool) {
	switch x := v.(type) {
	case Fields:
		return x, true
	case map[string]any:
		return Fields(x), true
	default:
		return nil, false
	}
}
