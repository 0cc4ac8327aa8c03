package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/engine"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/breaker"
)

// maxResultWindow mirrors the index.max_result_window default.
const maxResultWindow = 10000

// Config holds the Elasticsearch connection settings.
type Config struct {
	URL       string
	IndexName string
	Breaker   breaker.Config
	Pool      breaker.PoolConfig
}

// Engine is an Elasticsearch-backed implementation of engine.Engine.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.Listing `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Categories esTermsAgg  `json:"categories"`
		Brands     esTermsAgg  `json:"brands"`
		Conditions esTermsAgg  `json:"conditions"`
		FuelTypes  esTermsAgg  `json:"fuelTypes"`
		Countries  esTermsAgg  `json:"countries"`
		Price      esMinMaxAgg `json:"price"`
		Year       esMinMaxAgg `json:"year"`
	} `json:"aggregations"`
}

type esTermsAgg struct {
	Values struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int64  `json:"doc_count"`
			Label    struct {
				Hits struct {
					Hits []struct {
						Source domain.Listing `json:"_source"`
					} `json:"hits"`
				} `json:"hits"`
			} `json:"label"`
		} `json:"buckets"`
	} `json:"values"`
}

type esMinMaxAgg struct {
	Min struct {
		Value *float64 `json:"value"`
	} `json:"min"`
	Max struct {
		Value *float64 `json:"value"`
	} `json:"max"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an Elasticsearch engine. Requests go through a pooled
// transport guarded by a circuit breaker so an unhealthy cluster fails fast.
// New does not contact the cluster; call EnsureIndex once it is reachable.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = breaker.DefaultConfig("elasticsearch")
	}
	if cfg.Pool == (breaker.PoolConfig{}) {
		cfg.Pool = breaker.DefaultPoolConfig()
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.URL},
		Transport:    breaker.NewTransport(breaker.NewPooledTransport(cfg.Pool), cfg.Breaker, logger),
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: cfg.IndexName,
		logger:    logger,
	}, nil
}

// responseError decodes an Elasticsearch error body into an error.
func responseError(op string, res *esapi.Response) error {
	var errResp esErrorResponse
	if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status())
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the listings index with its mapping if it does not exist.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		e.logger.Info("elasticsearch index already exists", slog.String("index", e.indexName))
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	e.logger.Info("elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// Index adds or replaces a single listing in the Elasticsearch index.
func (e *Engine) Index(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal listing: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(listing.ID),
		e.client.Index.WithRefresh("wait_for"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("index", res)
	}

	e.logger.Debug("indexed listing", slog.String("id", listing.ID), slog.String("title", listing.Title))
	return nil
}

// Delete removes a listing from the index. A missing document is ignored.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}

	e.logger.Debug("deleted listing", slog.String("id", id))
	return nil
}

// BulkIndex adds or replaces listings using the bulk NDJSON API.
func (e *Engine) BulkIndex(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range listings {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.indexName,
				"_id":    listings[i].ID,
			},
		}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(&listings[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("bulk index", res)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}

	if bulkResp.Errors {
		var errMsgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				errMsgs = append(errMsgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(errMsgs, "; "))
	}

	e.logger.Info("bulk indexed listings", slog.Int("count", len(listings)))
	return nil
}

// Search executes f against the index and builds the response envelope
// from the hits and facet aggregations.
func (e *Engine) Search(ctx context.Context, f domain.Filter) (*domain.Envelope, error) {
	if f.Offset()+f.Limit > maxResultWindow {
		return nil, fmt.Errorf("elasticsearch search: from %d size %d: %w", f.Offset(), f.Limit, engine.ErrPageOutOfRange)
	}

	data, err := json.Marshal(buildSearchQuery(f))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	env := domain.NewEnvelope(f)
	for i := range esResp.Hits.Hits {
		env.Listings = append(env.Listings, esResp.Hits.Hits[i].Source.Summary())
	}
	env.Pagination = domain.NewPagination(f.Page, f.Limit, esResp.Hits.Total.Value)

	aggs := &esResp.Aggregations
	env.Aggregations.SetBuckets(domain.DimensionCategories, aggs.Categories.buckets(func(l *domain.Listing) (string, string) {
		return l.CategoryName, l.CategorySlug
	}))
	env.Aggregations.SetBuckets(domain.DimensionBrands, aggs.Brands.buckets(func(l *domain.Listing) (string, string) {
		return l.BrandName, l.BrandSlug
	}))
	env.Aggregations.SetBuckets(domain.DimensionConditions, aggs.Conditions.buckets(nil))
	env.Aggregations.SetBuckets(domain.DimensionFuelTypes, aggs.FuelTypes.buckets(nil))
	env.Aggregations.SetBuckets(domain.DimensionCountries, aggs.Countries.buckets(nil))
	env.Aggregations.Price = aggs.Price.toRange()
	env.Aggregations.Year = aggs.Year.toRange()

	e.logger.DebugContext(ctx, "search executed",
		slog.String("query", f.Text),
		slog.Int64("total", esResp.Hits.Total.Value),
	)

	return env, nil
}

// buckets converts terms buckets. label, when set, reads the display name
// and slug from the bucket's top hit.
func (a *esTermsAgg) buckets(label func(*domain.Listing) (name, slug string)) []domain.Bucket {
	out := make([]domain.Bucket, 0, len(a.Values.Buckets))
	for _, b := range a.Values.Buckets {
		bucket := domain.Bucket{Value: b.Key, Count: b.DocCount}
		if label != nil && len(b.Label.Hits.Hits) > 0 {
			bucket.Label, bucket.Slug = label(&b.Label.Hits.Hits[0].Source)
		}
		out = append(out, bucket)
	}
	return out
}

func (a *esMinMaxAgg) toRange() domain.Range {
	var r domain.Range
	if a.Min.Value != nil {
		v := int64(*a.Min.Value)
		r.Min = &v
	}
	if a.Max.Value != nil {
		v := int64(*a.Max.Value)
		r.Max = &v
	}
	return r
}
