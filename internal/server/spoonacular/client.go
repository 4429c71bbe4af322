// Package spoonacular is a client for the Spoonacular recipe API, the
// external catalogue behind search, random picks and external recipe steps.
package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

const (
	maxRetryElapsed = 10 * time.Second

	// maxConcurrentFetches bounds parallel detail requests in Overviews.
	maxConcurrentFetches = 4
)

// StatusError is a non-2xx answer that is not worth retrying.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spoonacular: status %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	// newBackOff returns a fresh policy per request; BackOff values are stateful.
	newBackOff func() backoff.BackOff
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = maxRetryElapsed
			return bo
		},
	}
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// get fetches path and decodes the JSON body into out. Throttling, server
// errors and transport failures are retried with exponential backoff.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	target := c.baseURL + path + "?" + params.Encode()

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		// a header keeps the key out of *url.Error text
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("spoonacular %s: %w", path, common.ErrorNotFound))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if retryable(resp.StatusCode) {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("spoonacular %s: decoding: %w", path, err))
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx))
	if err == nil {
		return nil
	}

	var serr *StatusError
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &serr) && !retryable(serr.Code):
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrExternalUnavailable, err)
}

// Random returns n random recipes.
func (c *Client) Random(ctx context.Context, n int) ([]*models.RecipeOverview, error) {
	var body struct {
		Recipes []rawRecipe `json:"recipes"`
	}
	params := url.Values{"number": {strconv.Itoa(n)}}
	if err := c.get(ctx, "/recipes/random", params, &body); err != nil {
		return nil, err
	}
	return overviews(body.Recipes), nil
}

// Information returns the details of one recipe.
func (c *Client) Information(ctx context.Context, id int64) (*models.RecipeDetail, error) {
	var raw rawRecipe
	if err := c.get(ctx, fmt.Sprintf("/recipes/%d/information", id), nil, &raw); err != nil {
		return nil, err
	}
	return raw.detail(), nil
}

// Search runs a complex search with full recipe information attached to
// each result.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) ([]*models.RecipeOverview, error) {
	params := url.Values{"addRecipeInformation": {"true"}}
	set := func(k, v string) {
		if v != "" {
			params.Set(k, v)
		}
	}
	set("query", q.Query)
	set("cuisine", q.Cuisine)
	set("diet", q.Diet)
	set("intolerances", q.Intolerances)
	set("sort", q.Sort)
	set("sortDirection", q.SortDirection)
	if q.Number > 0 {
		params.Set("number", strconv.Itoa(q.Number))
	}

	var body struct {
		Results []rawRecipe `json:"results"`
	}
	if err := c.get(ctx, "/recipes/complexSearch", params, &body); err != nil {
		return nil, err
	}
	return overviews(body.Results), nil
}

// AnalyzedSteps returns the instructions of a recipe as one list numbered
// 1..N. Recipes split into several instruction groups are concatenated in
// order.
func (c *Client) AnalyzedSteps(ctx context.Context, id int64) ([]models.ExternalStep, error) {
	var groups []struct {
		Name  string `json:"name"`
		Steps []struct {
			Number int    `json:"number"`
			Step   string `json:"step"`
		} `json:"steps"`
	}
	if err := c.get(ctx, fmt.Sprintf("/recipes/%d/analyzedInstructions", id), nil, &groups); err != nil {
		return nil, err
	}

	out := []models.ExternalStep{}
	for _, g := range groups {
		for _, s := range g.Steps {
			text := strings.TrimSpace(s.Step)
			if text == "" {
				continue
			}
			out = append(out, models.ExternalStep{Number: len(out) + 1, Description: text})
		}
	}
	return out, nil
}

// Overviews loads several recipes concurrently and returns them in the order
// of ids. Recipes the API does not know are left out.
func (c *Client) Overviews(ctx context.Context, ids []int64) ([]*models.RecipeOverview, error) {
	results := make([]*models.RecipeOverview, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, id := range ids {
		g.Go(func() error {
			d, err := c.Information(gctx, id)
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = &d.RecipeOverview
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*models.RecipeOverview, 0, len(ids))
	for _, o := range results {
		if o != nil {
			out = append(out, o)
		}
	}
	return out, nil
}
