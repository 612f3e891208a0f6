package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"crud-admin/internal/config"
)

// ParseListOptions reads list options from the query string:
//
//	page, limit, orderBy, orderDirection, include=a,b, autoInclude=false,
//	filters=<json>, filter[column]=value
//
// limit is clamped to limits.MaxLimit.
func ParseListOptions(c *fiber.Ctx, limits config.QueryConfig) (ListOptions, error) {
	opts := ListOptions{
		Page:           1,
		Limit:          limits.DefaultLimit,
		OrderBy:        strings.TrimSpace(c.Query("orderBy")),
		OrderDirection: c.Query("orderDirection"),
		Include:        splitAndTrim(c.Query("include")),
	}

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			opts.Page = v
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			opts.Limit = v
		}
	}
	if limits.MaxLimit > 0 && opts.Limit > limits.MaxLimit {
		opts.Limit = limits.MaxLimit
	}

	if ai := c.Query("autoInclude"); ai != "" {
		v, err := strconv.ParseBool(ai)
		if err != nil {
			return opts, ValidationError(fmt.Sprintf("Invalid autoInclude value: %s", ai))
		}
		opts.DisableAutoInclude = !v
	}

	filters, err := ParseFilters([]byte(c.Query("filters")))
	if err != nil {
		return opts, err
	}

	// filter[field]=value extends the flat shorthand
	for key, val := range c.Queries() {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		field := key[7 : len(key)-1]
		if field == "" {
			continue
		}
		if filters.Equals == nil {
			filters.Equals = map[string]any{}
		}
		filters.Equals[field] = val
	}
	opts.Filters = filters

	return opts, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
