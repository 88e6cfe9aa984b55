package survey

import (
	"fmt"
	"os"
	"time"

	"workbook-generator/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 128

type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// CachedParser memoizes ParseFile results so a batch run that parses each
// survey for matching does not parse it again for generation. Entries are
// keyed on path, size and modification time.
type CachedParser struct {
	parser *Parser
	cache  *lru.Cache[cacheKey, domain.SurveyResult]
}

// NewCachedParser wraps parser with an LRU cache of size entries.
func NewCachedParser(parser *Parser, size int) (*CachedParser, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New[cacheKey, domain.SurveyResult](size)
	if err != nil {
		return nil, fmt.Errorf("create survey cache: %w", err)
	}
	return &CachedParser{parser: parser, cache: c}, nil
}

// ParseFile returns the cached result for path or parses it.
func (c *CachedParser) ParseFile(path string) (domain.SurveyResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.SurveyResult{}, fmt.Errorf("%w: %v", domain.ErrSurveyUnreadable, err)
	}
	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime()}
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}
	res, err := c.parser.ParseFile(path)
	if err != nil {
		return domain.SurveyResult{}, err
	}
	c.cache.Add(key, res)
	return res, nil
}

// Len reports the number of cached results.
func (c *CachedParser) Len() int { return c.cache.Len() }
