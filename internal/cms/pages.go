package cms

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ErrInvalidSlug is returned for page names outside [a-z0-9-].
var ErrInvalidSlug = errors.New("cms: invalid page slug")

// Page returns the markdown source of pages/<slug>.md.
func (c *Client) Page(ctx context.Context, slug string) (string, error) {
	if !slugPattern.MatchString(slug) {
		return "", ErrInvalidSlug
	}
	key := "pages/" + slug + ".md"
	if doc, ok := c.cached(key); ok {
		c.observer.ObserveCache(key, true)
		return doc.(string), nil
	}
	c.observer.ObserveCache(key, false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		text, err := c.loadText(ctx, key)
		if err != nil {
			return nil, err
		}
		c.store(key, text)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) loadText(ctx context.Context, file string) (string, error) {
	var lastErr error
	for _, src := range c.sources {
		data, err := src.Fetch(ctx, file)
		switch {
		case err == nil:
			c.observer.ObserveFetch(file, src.Name(), ResultOK)
			return string(data), nil
		case errors.Is(err, ErrNotFound):
			c.observer.ObserveFetch(file, src.Name(), ResultNotFound)
		default:
			c.observer.ObserveFetch(file, src.Name(), ResultError)
			c.logger.Warn("cms source failed",
				zap.String("document", file),
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("cms: load %s: %w", file, lastErr)
	}
	return "", ErrNotFound
}
