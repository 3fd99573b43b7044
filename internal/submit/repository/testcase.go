package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"codepractice/internal/common/cache"
	"codepractice/internal/common/db"
	"codepractice/internal/judge/model"
)

const (
	defaultTestCaseCacheTTL      = 10 * time.Minute
	defaultTestCaseCacheEmptyTTL = time.Minute
	testCaseCacheKeyPrefix       = "problem:testcases:"
)

// TestCaseRepository reads the ordered test cases of a problem.
type TestCaseRepository interface {
	// ListByProblem returns an empty slice when the problem has no cases.
	ListByProblem(ctx context.Context, problemID string) ([]model.TestCase, error)
}

// MySQLTestCaseRepository implements TestCaseRepository with MySQL and cache-aside.
type MySQLTestCaseRepository struct {
	db       db.Database
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewTestCaseRepository creates a test case repository. cacheClient may be nil.
func NewTestCaseRepository(database db.Database, cacheClient cache.Cache) *MySQLTestCaseRepository {
	return &MySQLTestCaseRepository{
		db:       database,
		cache:    cacheClient,
		ttl:      defaultTestCaseCacheTTL,
		emptyTTL: defaultTestCaseCacheEmptyTTL,
	}
}

// ListByProblem returns the cases in insertion order.
func (r *MySQLTestCaseRepository) ListByProblem(ctx context.Context, problemID string) ([]model.TestCase, error) {
	if problemID == "" {
		return nil, errors.New("problemID is required")
	}
	if r.cache == nil {
		return r.listFromDB(ctx, problemID)
	}
	cases, err := cache.GetWithCached[[]model.TestCase](
		ctx,
		r.cache,
		testCaseCacheKeyPrefix+problemID,
		r.ttl,
		cache.JitterTTL(r.emptyTTL),
		func(cases []model.TestCase) bool { return len(cases) == 0 },
		marshalTestCases,
		unmarshalTestCases,
		func(ctx context.Context) ([]model.TestCase, error) {
			return r.listFromDB(ctx, problemID)
		},
	)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []model.TestCase{}
	}
	return cases, nil
}

func (r *MySQLTestCaseRepository) listFromDB(ctx context.Context, problemID string) ([]model.TestCase, error) {
	rows, err := r.db.Query(ctx,
		"SELECT input, expected_output, is_hidden FROM test_cases WHERE problem_id = ? ORDER BY id",
		problemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []model.TestCase{}
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.Input, &tc.ExpectedOutput, &tc.IsHidden); err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

func marshalTestCases(cases []model.TestCase) (string, error) {
	data, err := json.Marshal(cases)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalTestCases(data string) ([]model.TestCase, error) {
	var cases []model.TestCase
	if err := json.Unmarshal([]byte(data), &cases); err != nil {
		return nil, err
	}
	return cases, nil
}
