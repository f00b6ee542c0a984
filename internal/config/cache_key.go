package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// NumberFactKey returns the cache key for the trivia text of a number
func (r *CacheKeyStruct) NumberFactKey(number int) string {
	return fmt.Sprintf("number:%d:fact", number)
}

var CacheKey = NewCacheKeyStruct()
