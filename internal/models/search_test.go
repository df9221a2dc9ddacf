package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchKeyFoldsCyrillic(t *testing.T) {
	phone := "+7 900 111-22-33"
	assert.Equal(t, "иванов петр", SearchKey("  ИВАНОВ ", "Пётр"))
	assert.Equal(t, "алена +7 900 111-22-33", ClientSearchKey("Алёна", &phone))
	assert.Equal(t, SearchKey("john smith"), ClientSearchKey("John  SMITH", nil))
}

func TestSearchKeyConcurrentCallers(t *testing.T) {
	var wg sync.WaitGroup
	keys := make([]string, 64)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i] = SearchKey("Ёлкина", "АННА")
		}(i)
	}
	wg.Wait()
	for _, key := range keys {
		assert.Equal(t, "елкина анна", key)
	}
}
