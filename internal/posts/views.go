package posts

import (
	"sort"
	"strconv"
)

// Query selects published records. Empty fields do not filter; Limit <= 0
// means no limit. Category is normalised before comparison.
type Query struct {
	Year     string
	Category string
	Limit    int
}

// YearCount is one entry of the archive list.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// CategoryCount is one entry of the category list. Name keeps the author's
// spelling for display, Slug is the URL key.
type CategoryCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// FilterPublished keeps published records, preserving order.
func FilterPublished(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Published() {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateDescending returns a copy ordered newest first. Records with an
// invalid date go last. Equal dates keep their input order.
func SortByDateDescending(records []Record) []Record {
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DateValid != b.DateValid {
			return a.DateValid
		}
		return a.ParsedDate.After(b.ParsedDate)
	})
	return out
}

// GroupByYear counts published records per year. Undated records count
// under UndatedKey, so the counts sum to len(FilterPublished(records)).
func GroupByYear(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Published() {
			counts[r.Year()]++
		}
	}
	return counts
}

// GroupByCategory counts published records per raw category name.
func GroupByCategory(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Published() {
			counts[r.Category()]++
		}
	}
	return counts
}

// FilterByYear returns published records whose year key equals year.
func FilterByYear(records []Record, year string) []Record {
	var out []Record
	for _, r := range records {
		if r.Published() && r.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// FilterByCategory returns published records whose category key equals key.
func FilterByCategory(records []Record, key string) []Record {
	var out []Record
	for _, r := range records {
		if r.Published() && r.CategoryKey() == key {
			out = append(out, r)
		}
	}
	return out
}

// Select applies q and returns the matching published records newest first.
func Select(records []Record, q Query) []Record {
	out := FilterPublished(records)
	if q.Year != "" {
		out = FilterByYear(out, q.Year)
	}
	if q.Category != "" {
		out = FilterByCategory(out, CategoryKey(q.Category))
	}
	out = SortByDateDescending(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// YearCounts returns GroupByYear as a list, newest year first, with the
// undated bucket last.
func YearCounts(records []Record) []YearCount {
	grouped := GroupByYear(records)
	out := make([]YearCount, 0, len(grouped))
	for y, n := range grouped {
		out = append(out, YearCount{Year: y, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		yi, errI := strconv.Atoi(out[i].Year)
		yj, errJ := strconv.Atoi(out[j].Year)
		if (errI == nil) != (errJ == nil) {
			return errI == nil
		}
		if errI != nil {
			return out[i].Year < out[j].Year
		}
		return yi > yj
	})
	return out
}

// CategoryCounts lists GroupByCategory sorted by display name. Every
// spelling keeps its own entry; spellings that normalise to the same key
// link to the same category page.
func CategoryCounts(records []Record) []CategoryCount {
	grouped := GroupByCategory(records)
	out := make([]CategoryCount, 0, len(grouped))
	for name, n := range grouped {
		out = append(out, CategoryCount{Name: name, Slug: CategoryKey(name), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// CategoryLabel is the display name for a category page: the raw category
// of the first matching record, or the requested identifier when none match.
func CategoryLabel(matches []Record, requested string) string {
	if len(matches) > 0 {
		return matches[0].Category()
	}
	return requested
}
