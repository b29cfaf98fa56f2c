// Package pagination wraps bulk-read tools with auto-detected pagination
// looping, capped at a hard record limit, plus grouping/aggregation helpers.
package pagination

import "strconv"

const (
	maxRecords = 10_000
	maxPages   = 500
)

// Style names the pagination convention detected from the first response.
type Style string

const (
	StylePageLimit Style = "page_limit"
	StyleCursor    Style = "cursor_next"
	StyleOffset    Style = "offset_total"
	StyleHasMore   Style = "has_more"
	StyleNone      Style = "none"
)

// Record is a single fetched row, kept generic as a string-keyed map.
type Record map[string]interface{}

// Page is one page of a paginated response.
type Page struct {
	Records  []Record
	NextPage map[string]string // param overrides to request the next page; nil/empty means done
}

// Caller fetches one page given the current params.
type Caller func(params map[string]string) (Page, map[string]interface{}, error)

// DetectStyle inspects the raw response envelope (decoded JSON object) from
// the first page to determine the pagination convention in use.
func DetectStyle(firstResponse map[string]interface{}) Style {
	if _, ok := firstResponse["cursor"]; ok {
		return StyleCursor
	}
	if _, ok := firstResponse["next"]; ok {
		return StyleCursor
	}
	if _, ok := firstResponse["has_more"]; ok {
		return StyleHasMore
	}
	if _, ok := firstResponse["total"]; ok {
		if _, ok := firstResponse["offset"]; ok {
			return StyleOffset
		}
	}
	if _, ok := firstResponse["page"]; ok {
		if _, ok := firstResponse["limit"]; ok {
			return StylePageLimit
		}
	}
	return StyleNone
}

// FetchAll loops call until exhausted, a hard cap of 10,000 records, or 500
// pages, whichever comes first.
func FetchAll(call Caller, initialParams map[string]string) ([]Record, error) {
	var all []Record
	params := initialParams
	style := StyleNone
	page := 1

	for page <= maxPages && len(all) < maxRecords {
		result, raw, err := call(params)
		if err != nil {
			return all, err
		}
		if page == 1 {
			style = DetectStyle(raw)
		}

		all = append(all, result.Records...)
		if len(all) > maxRecords {
			all = all[:maxRecords]
			break
		}

		next := nextParams(style, raw, result, params)
		if next == nil {
			break
		}
		params = next
		page++
	}
	return all, nil
}

func nextParams(style Style, raw map[string]interface{}, page Page, current map[string]string) map[string]string {
	switch style {
	case StyleCursor:
		if page.NextPage != nil {
			return page.NextPage
		}
		return nil
	case StyleHasMore:
		hasMore, _ := raw["has_more"].(bool)
		if !hasMore {
			return nil
		}
		return page.NextPage
	case StyleOffset:
		total, _ := toFloat(raw["total"])
		offsetStr := current["offset"]
		offset, _ := strconv.Atoi(offsetStr)
		limit := len(page.Records)
		if limit == 0 {
			return nil
		}
		newOffset := offset + limit
		if float64(newOffset) >= total {
			return nil
		}
		out := cloneMap(current)
		out["offset"] = strconv.Itoa(newOffset)
		return out
	case StylePageLimit:
		if len(page.Records) == 0 {
			return nil
		}
		curPage, _ := strconv.Atoi(current["page"])
		out := cloneMap(current)
		out["page"] = strconv.Itoa(curPage + 1)
		return out
	default:
		return nil
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FetchAllMatching fetches everything then filters by predicate.
func FetchAllMatching(call Caller, initialParams map[string]string, predicate func(Record) bool) ([]Record, error) {
	all, err := FetchAll(call, initialParams)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range all {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GroupBy partitions records by the string value of key.
func GroupBy(records []Record, key string) map[string][]Record {
	groups := make(map[string][]Record)
	for _, r := range records {
		k := ""
		if v, ok := r[key]; ok {
			k = toString(v)
		}
		groups[k] = append(groups[k], r)
	}
	return groups
}

// SumField sums the numeric value of key across records.
func SumField(records []Record, key string) float64 {
	var sum float64
	for _, r := range records {
		if v, ok := toFloat(r[key]); ok {
			sum += v
		}
	}
	return sum
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	default:
		return ""
	}
}
