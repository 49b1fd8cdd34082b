package service

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"tick-task/internal/model"
)

// ParseListParams turns list query parameters into a TaskQuery. Every bad
// parameter is reported in a single ValidationError.
func ParseListParams(values url.Values) (model.TaskQuery, error) {
	q := model.TaskQuery{
		Sort:  model.ParseSortField(values.Get("sort")),
		Limit: model.DefaultListLimit,
	}
	verr := &ValidationError{}

	for _, raw := range splitParam(values["status"]) {
		s, err := model.ParseStatus(raw)
		if err != nil {
			verr.add("status", "must be one of %s", strings.Join(statusNames(), ", "))
			break
		}
		q.Statuses = append(q.Statuses, s)
	}

	if raw := strings.TrimSpace(values.Get("context")); raw != "" {
		c, err := model.ParseContext(raw)
		if err != nil {
			verr.add("context", "must be one of %s", strings.Join(contextNames(), ", "))
		}
		q.Context = c
	}

	if raw := strings.TrimSpace(values.Get("priority")); raw != "" {
		p, err := model.ParsePriority(raw)
		if err != nil {
			verr.add("priority", "must be one of %s", strings.Join(priorityNames(), ", "))
		}
		q.MinPriority = p
	}

	for _, raw := range splitParam(values["tags"]) {
		if tag := NormalizeTag(raw); tag != "" {
			q.Tags = append(q.Tags, tag)
		}
	}

	q.DueBefore = timeParam(values, "due_before", verr)
	q.DueAfter = timeParam(values, "due_after", verr)
	q.UpdatedSince = timeParam(values, "updated_since", verr)

	order, err := model.ParseSortOrder(values.Get("order"))
	if err != nil {
		verr.add("order", "must be asc or desc")
	}
	q.Order = order

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > model.MaxListLimit {
			verr.add("limit", "must be an integer between 1 and %d", model.MaxListLimit)
		}
		q.Limit = n
	}

	if raw := strings.TrimSpace(values.Get("cursor")); raw != "" {
		c, err := model.DecodeCursor(raw)
		switch {
		case err != nil:
			verr.add("cursor", "is not a valid cursor")
		case order != "" && (c.Sort != q.Sort || c.Order != q.Order):
			verr.add("cursor", "was issued for a different sort or order")
		default:
			q.After = &c
		}
	}

	if err := verr.err(); err != nil {
		return model.TaskQuery{}, err
	}
	return q, nil
}

// splitParam flattens repeated and comma separated values, dropping blanks.
func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func timeParam(values url.Values, key string, verr *ValidationError) *time.Time {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	t, err := ParseTime(raw)
	if i := strings.LastIndex(raw, " "); err != nil && i > 0 {
		// an unescaped "+" in the offset arrives as a space
		t, err = ParseTime(raw[:i] + "+" + raw[i+1:])
	}
	if err != nil {
		verr.add(key, "must be a valid datetime")
		return nil
	}
	return &t
}
