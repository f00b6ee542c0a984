package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// maxFactBytes bounds how much of the upstream body is read.
const maxFactBytes = 64 << 10

// FactCache stores trivia texts per number.
type FactCache interface {
	Get(ctx context.Context, number int) (string, bool, error)
	Set(ctx context.Context, number int, fact string) error
}

// NumberService proxies numbers to the public trivia API.
type NumberService struct {
	baseURL string
	client  *http.Client
	cache   FactCache
	log     zerolog.Logger
}

// NewNumberService creates a new NumberService. cache may be nil.
func NewNumberService(baseURL string, timeout time.Duration, cache FactCache, log zerolog.Logger) *NumberService {
	return &NumberService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		log:     log.With().Str("component", "number_service").Logger(),
	}
}

// Fact returns the upstream text for number verbatim.
func (s *NumberService) Fact(ctx context.Context, number int) (string, error) {
	if s.cache != nil {
		fact, ok, err := s.cache.Get(ctx, number)
		if err != nil {
			s.log.Warn().Err(err).Int("number", number).Msg("Fact cache read failed")
		} else if ok {
			return fact, nil
		}
	}

	fact, err := s.fetch(ctx, number)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, number, fact); err != nil {
			s.log.Warn().Err(err).Int("number", number).Msg("Fact cache write failed")
		}
	}
	return fact, nil
}

func (s *NumberService) fetch(ctx context.Context, number int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+strconv.Itoa(number), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call numbers api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFactBytes))
	if err != nil {
		return "", fmt.Errorf("read numbers api body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("numbers api returned %d", resp.StatusCode)
	}
	return string(body), nil
}
